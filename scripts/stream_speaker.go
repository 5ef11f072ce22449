// Command stream_speaker streams a raw PCM file to a running ingest server
// as one speaker on one call, then stops the recording and prints the
// transcript the server sends back.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

type control struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type reply struct {
	Type       string `json:"type"`
	Transcript string `json:"transcript,omitempty"`
}

func main() {
	addr := flag.String("addr", "localhost:8090", "ingest server host:port")
	path := flag.String("path", "/ingest", "ingest websocket path")
	callID := flag.String("call", "", "call identifier")
	speakerID := flag.String("speaker", "", "speaker identifier")
	name := flag.String("name", "", "speaker display name")
	pcmFile := flag.String("pcm", "", "raw PCM file (s16le) to stream")
	chunkMS := flag.Int("chunk_ms", 20, "milliseconds of audio per message")
	sampleRate := flag.Int("sample_rate", 48000, "PCM sample rate")
	start := flag.Bool("start", false, "send start before streaming")
	stop := flag.Bool("stop", false, "send stop after streaming and print the transcript")
	flag.Parse()

	if *callID == "" || *speakerID == "" || *pcmFile == "" {
		fmt.Println("usage: stream_speaker -call=c1 -speaker=s1 -pcm=audio.pcm [-start] [-stop]")
		os.Exit(1)
	}

	pcm, err := os.ReadFile(*pcmFile)
	if err != nil {
		fmt.Println("read pcm:", err)
		os.Exit(1)
	}

	u := url.URL{
		Scheme:   "ws",
		Host:     *addr,
		Path:     *path,
		RawQuery: "call=" + url.QueryEscape(*callID) + "&speaker=" + url.QueryEscape(*speakerID),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		fmt.Println("dial:", err)
		os.Exit(1)
	}
	defer conn.Close()

	if *start {
		if err := conn.WriteJSON(control{Type: "start"}); err != nil {
			fmt.Println("start:", err)
			os.Exit(1)
		}
	}
	if *name != "" {
		if err := conn.WriteJSON(control{Type: "name", Name: *name}); err != nil {
			fmt.Println("name:", err)
			os.Exit(1)
		}
	}

	// s16le mono: 2 bytes per sample.
	chunkBytes := *sampleRate * 2 * *chunkMS / 1000
	if chunkBytes <= 0 {
		chunkBytes = len(pcm)
	}
	ticker := time.NewTicker(time.Duration(*chunkMS) * time.Millisecond)
	defer ticker.Stop()
	for off := 0; off < len(pcm); off += chunkBytes {
		end := off + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			fmt.Println("chunk:", err)
			os.Exit(1)
		}
		<-ticker.C
	}

	if !*stop {
		return
	}
	if err := conn.WriteJSON(control{Type: "stop"}); err != nil {
		fmt.Println("stop:", err)
		os.Exit(1)
	}
	_, data, err := conn.ReadMessage()
	if err != nil {
		fmt.Println("read transcript:", err)
		os.Exit(1)
	}
	var rep reply
	if err := json.Unmarshal(data, &rep); err != nil {
		fmt.Println("decode transcript:", err)
		os.Exit(1)
	}
	fmt.Println(rep.Transcript)
}
