//go:build !linux

package main

import "errors"

type terminalState struct{}

func setRawMode(uintptr) (*terminalState, error) {
	return nil, errors.New("raw terminal mode is only supported on linux")
}

func restoreMode(uintptr, *terminalState) {}
