package dotenv

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnvs loads the .env file cascade for the current GEOMUX_ENV
// (defaults to "dev"). Call once from main; everything else reads config
// through os.Getenv at runtime. Load order, highest priority first:
// .env.<env>.local, .env.local, .env.<env>, .env.
func LoadDotEnvs() error {
	loadDotEnvs("")
	return nil
}

func loadDotEnvs(rootPath string) {
	env := os.Getenv("GEOMUX_ENV")
	if env == "" {
		env = "dev"
	}

	godotenv.Load(rootPath + ".env." + env + ".local")
	godotenv.Load(rootPath + ".env.local")
	godotenv.Load(rootPath + ".env." + env)
	godotenv.Load(rootPath + ".env")
}

// LoadDotEnvsInTests loads .env.test from the repo root. godotenv resolves
// paths relative to the test binary's working directory, which is the
// package under test, so walk the cwd back up to the module root first
// (https://github.com/joho/godotenv/issues/43).
func LoadDotEnvsInTests() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	root := cwd
	for !strings.HasSuffix(root, "geomux") {
		parent := filepath.Dir(root)
		if parent == root {
			root = cwd
			break
		}
		root = parent
	}
	godotenv.Load(filepath.Join(root, ".env.test"))
	return nil
}
