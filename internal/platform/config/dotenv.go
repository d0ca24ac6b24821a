package config

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotenv loads a .env file when present so local runs pick up credentials
// without exporting them. Missing files are not an error; a malformed file is.
func LoadDotenv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}
