// Command viewer is a terminal client for the crypt server. It renders the
// broadcast snapshots and steers a ship with WASD; space toggles firing.
package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strconv"

	"github.com/lguibr/asciiring/helpers"
	"github.com/lguibr/crypt/game"
	"github.com/lguibr/crypt/render"
	"golang.org/x/net/websocket"
)

func main() {
	addr := flag.String("addr", "localhost:3001", "server host:port")
	spectate := flag.Bool("spectate", false, "watch without joining")
	cols := flag.Int("cols", 78, "frame width")
	rows := flag.Int("rows", 20, "frame height")
	color := flag.Bool("color", true, "colored output")
	flag.Parse()

	query := url.Values{}
	if *spectate {
		query.Set("spectate", "1")
	}
	target := url.URL{Scheme: "ws", Host: *addr, Path: "/subscribe", RawQuery: query.Encode()}
	websocketConnection, err := websocket.Dial(target.String(), "", "http://"+*addr+"/")
	if err != nil {
		fmt.Println("Error connecting to server:", err)
		os.Exit(1)
	}
	defer websocketConnection.Close()

	opts := render.Options{Cols: *cols, Rows: *rows, Color: *color}
	go receiveLoop(websocketConnection, opts)

	savedTerminalSettings, err := setRawMode(os.Stdin.Fd())
	if err != nil {
		fmt.Println("Error setting raw mode:", err)
		return
	}
	defer restoreMode(os.Stdin.Fd(), savedTerminalSettings)

	interruptSignalChannel := make(chan os.Signal, 1)
	signal.Notify(interruptSignalChannel, os.Interrupt)
	go func() {
		<-interruptSignalChannel
		restoreMode(os.Stdin.Fd(), savedTerminalSettings)
		os.Exit(0)
	}()

	keys := &keyState{}
	singleByteBuffer := make([]byte, 1)
	for {
		if _, err := os.Stdin.Read(singleByteBuffer); err != nil {
			return
		}
		in, send, quit := keys.press(singleByteBuffer[0])
		if quit {
			fmt.Print("Quitting game\r\n")
			return
		}
		if !send {
			continue
		}
		if err := websocket.JSON.Send(websocketConnection, in); err != nil {
			fmt.Print("Error sending to server: ", err, "\r\n")
			return
		}
	}
}

// receiveLoop draws every snapshot until the connection ends.
func receiveLoop(ws *websocket.Conn, opts render.Options) {
	status := "spectating"
	for {
		var data []byte
		if err := websocket.Message.Receive(ws, &data); err != nil {
			fmt.Print("Connection closed: ", err, "\r\n")
			return
		}
		msg, err := decodeFrame(data)
		if err != nil {
			continue
		}
		switch m := msg.(type) {
		case game.PlayerJoined:
			if m.Index >= 0 {
				status = "you are P" + strconv.Itoa(m.Index)
			}
		case game.Snapshot:
			helpers.ClearScreen()
			fmt.Print(toRaw(render.Frame(m, opts)))
			fmt.Print(status, " | WASD move, space fire, q quit\r\n")
		case game.GameOverMessage:
			fmt.Printf("Game over (%s). Final scores: %v\r\n", m.Reason, m.FinalScores)
		}
	}
}

// toRaw converts line endings for a terminal with output post-processing off.
func toRaw(frame string) string {
	out := make([]byte, 0, len(frame)+64)
	for i := 0; i < len(frame); i++ {
		if frame[i] == '\n' {
			out = append(out, '\r')
		}
		out = append(out, frame[i])
	}
	return string(out)
}
