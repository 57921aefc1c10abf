package inject

import (
	"flag"
	"os"
	"strings"
)

const (
	envVarName = "APP_ENV"

	Production  = "production"
	Staging     = "staging"
	Development = "development"
	Test        = "test"
)

var currentENV = ""

// Env returns the current environment of the application
func Env() string {
	if currentENV != "" {
		return currentENV
	}

	if currentENV = os.Getenv(envVarName); currentENV != "" {
		return currentENV
	}

	if strings.HasSuffix(os.Args[0], ".test") || flag.Lookup("test.v") != nil {
		currentENV = Test
		return currentENV
	}

	currentENV = Development
	return currentENV
}

// IsTest returns true if the current env is test
func IsTest() bool {
	return Env() == Test
}

// IsProduction returns true if we are running in production mode
func IsProduction() bool {
	return Env() == Production
}

// IsDevelopment returns true if current env is development
func IsDevelopment() bool {
	return Env() == Development
}
