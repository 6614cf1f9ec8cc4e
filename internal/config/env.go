package config

import "os"

// osGetenv is a seam for tests; production always reads the real
// environment.
var osGetenv = os.Getenv
