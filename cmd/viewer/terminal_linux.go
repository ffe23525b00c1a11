//go:build linux

package main

import (
	"golang.org/x/sys/unix"
)

// terminalState is what setRawMode saved, to be restored on exit.
type terminalState = unix.Termios

func setRawMode(fileDescriptor uintptr) (*terminalState, error) {
	terminalSettings, err := unix.IoctlGetTermios(int(fileDescriptor), unix.TCGETS)
	if err != nil {
		return nil, err
	}
	savedTerminalSettings := *terminalSettings
	terminalSettings.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	terminalSettings.Oflag &^= unix.OPOST
	terminalSettings.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	terminalSettings.Cflag &^= unix.CSIZE | unix.PARENB
	terminalSettings.Cflag |= unix.CS8
	terminalSettings.Oflag |= unix.ONLCR

	if err := unix.IoctlSetTermios(int(fileDescriptor), unix.TCSETS, terminalSettings); err != nil {
		return nil, err
	}
	return &savedTerminalSettings, nil
}

func restoreMode(fileDescriptor uintptr, saved *terminalState) {
	if saved != nil {
		_ = unix.IoctlSetTermios(int(fileDescriptor), unix.TCSETS, saved)
	}
}
