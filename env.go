// FILE: env.go
// Package main – Environment helpers.
//
// Provides:
//   1) Small helpers to read environment variables with sane defaults
//      (strings, ints, floats, bools).
//   2) loadAppEnv – hydrates the process env from a .env file via godotenv
//      so no shell exports are required. Keys already present in the
//      environment always win over the file.
//
// The upstream API key (POLYGON_API_KEY) is read here once into Config and
// handed to the client constructor explicitly; no other file touches the
// credential.

package main

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// --------- Env helpers (used across files) ---------

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch v {
	case "1", "true", "y", "yes":
		return true
	case "0", "false", "n", "no":
		return false
	default:
		return def
	}
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// --------- .env loader ---------

// loadAppEnv reads ENV_FILE (default ".env") without overriding variables
// already exported in the process environment. A missing file is fine; we
// just run on whatever the environment provides.
func loadAppEnv() {
	path := getEnv("ENV_FILE", ".env")
	if _, err := os.Stat(path); err != nil {
		log.Printf("env: %s not found, relying on process env", path)
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Printf("env: failed to load %s: %v", path, err)
		return
	}
	log.Printf("env: loaded %s", path)
}
