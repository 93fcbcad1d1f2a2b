package main

import (
	"flag"

	"github.com/asticode/go-astilecture/listen"
	"github.com/asticode/go-astilecture/listener"
	"github.com/asticode/go-astilog"
	asticonfig "github.com/asticode/go-astitools/config"
	"github.com/pkg/errors"
)

// Flags
var (
	config = flag.String("c", "", "the config path")
)

func main() {
	// Parse flags
	flag.Parse()
	astilog.FlagInit()

	// Create configuration
	c := newConfiguration()

	// Initialize portaudio
	if err := listen.Initialize(); err != nil {
		astilog.Fatal(errors.Wrap(err, "main: initializing portaudio failed"))
	}
	defer listen.Terminate()

	// Create stream
	s, err := listen.NewPortAudioStream(c.Stream)
	if err != nil {
		astilog.Fatal(errors.Wrap(err, "main: creating stream failed"))
	}
	defer s.Close()

	// Create listener
	l := listener.New(s, c.Listener)
	defer l.Close()

	// Handle signals
	l.HandleSignals()

	// Serve
	l.Serve()

	// Connect to the index
	l.Connect()

	// Blocking pattern
	l.Wait()
}

// Configuration represents a configuration
type Configuration struct {
	Listener listener.Options              `toml:"listener"`
	Stream   listen.PortAudioStreamOptions `toml:"stream"`
}

// newConfiguration creates a new configuration
func newConfiguration() *Configuration {
	// Global config
	gc := &Configuration{
		Listener: listener.Options{
			Index: listener.IndexOptions{
				Addr:     "127.0.0.1:4000",
				Password: "admin",
				Username: "admin",
			},
			Server: listener.ServerOptions{Addr: "127.0.0.1:4001"},
		},
	}

	// Flag config
	fc := &Configuration{}

	// Build configuration
	c, err := asticonfig.New(gc, *config, fc)
	if err != nil {
		astilog.Fatal(err)
	}
	return c.(*Configuration)
}
