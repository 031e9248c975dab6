package config

import (
	"log"
	"time"
)

var fatalf = log.Fatalf

func MustNonEmpty(value, envName string) string {
	if value == "" {
		fatalf("missing required env %s", envName)
	}
	return value
}

func MustNonEmptyBytes(value []byte, envName string) []byte {
	if len(value) == 0 {
		fatalf("missing required env %s", envName)
	}
	return value
}

func MustPositive(d time.Duration, envName string) time.Duration {
	if d <= 0 {
		fatalf("env %s must be a positive duration, got %s", envName, d)
	}
	return d
}
