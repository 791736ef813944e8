package dotenv

import (
	"os"

	"github.com/joho/godotenv"
)

// LoadDotEnvs loads the .env file following the convention:
// https://github.com/bkeepers/dotenv#what-other-env-files-can-i-use
// It only need to be called once in main function, other code can use env
// through os.Getenv('ENV_NAME') during runtime.
func LoadDotEnvs() error {
	loadDotEnvs("")
	return nil
}

func loadDotEnvs(rootPath string) {
	env := os.Getenv("BSKYBOOK_ENV")
	if env == "" {
		env = "dev"
	}

	// .env.[runtime_env].local has highest priority, usually contains
	// sensitive overrides.
	godotenv.Load(rootPath + ".env." + env + ".local")
	godotenv.Load(rootPath + ".env.local")
	// .env.[runtime_env] usually contains per-environment settings.
	godotenv.Load(rootPath + ".env." + env)
	// .env contains shared variables (which might be overwritten by the
	// files above).
	godotenv.Load(rootPath + ".env")
}
