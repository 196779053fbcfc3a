package main

import "time"

// Flag structs to decouple cobra from logic for testing.

type ServeFlags struct {
	ConfigPath string
	Daemonize  bool
	PidFile    string
	LogFile    string
}

type CheckFlags struct {
	ConfigPath string
}

type StatusFlags struct {
	Name    string
	Retries bool
	// Remote daemon connection
	APIUrl     string
	APITimeout time.Duration
}
