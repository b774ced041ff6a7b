package main

import "os"

// keyCh buffers bytes read from stdin once raw mode is active, filled by a
// single background reader goroutine so pollKey can be non-blocking.
var keyCh = make(chan byte, 256)

func startKeyReader() {
	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if n > 0 {
				keyCh <- buf[0]
			}
			if err != nil {
				return
			}
		}
	}()
}

// pollKey returns the next buffered key, or 0 if none is waiting.
func pollKey() byte {
	select {
	case k := <-keyCh:
		return k
	default:
		return 0
	}
}

// setupIO switches stdin to raw mode for --run's keyboard port, returning
// whether it succeeded and a function to restore the previous mode.
func setupIO() (raw bool, tearDown func()) {
	tearDown, err := setRawIO()
	if err != nil {
		return false, nil
	}
	startKeyReader()
	return true, tearDown
}
