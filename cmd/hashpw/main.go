// Command hashpw reads a password from stdin and prints its bcrypt hash, for
// seeding member records by hand.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gogotex/tokenauth/internal/password"
	"github.com/gogotex/tokenauth/internal/users"
	"github.com/gogotex/tokenauth/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func main() {
	_ = godotenv.Load()
	viper.AutomaticEnv()
	viper.SetDefault("BCRYPT_COST", 12)

	cost := flag.Int("cost", viper.GetInt("BCRYPT_COST"), "bcrypt cost")
	flag.Parse()
	logger.Init(os.Getenv("LOG_LEVEL"))

	secret, err := readSecret(bufio.NewReader(os.Stdin))
	if err != nil {
		logger.Fatalf("read password: %v", err)
	}
	if err := users.ValidatePassword(secret); err != nil {
		logger.Fatalf("%v", err)
	}
	hash, err := password.NewHasher(*cost).Hash(secret)
	if err != nil {
		logger.Fatalf("hash: %v", err)
	}
	fmt.Println(hash)
}

// readSecret returns the first line of r without its line ending.
func readSecret(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
