package internal

import (
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func GenerateId() string {
	return uuid.Must(uuid.NewRandom()).String()
}

// Envs merges the contents of envFiles (.env when none are given) with the
// process environment; the process environment wins. A missing env file is
// not an error.
func Envs(envFiles ...string) map[string]string {
	envs := make(map[string]string)
	if fileEnvs, err := godotenv.Read(envFiles...); err == nil {
		for key, value := range fileEnvs {
			envs[key] = value
		}
	}
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	return envs
}
