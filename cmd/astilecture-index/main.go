package main

import (
	"context"
	"flag"
	"os"

	"github.com/asticode/go-astilecture/answer"
	"github.com/asticode/go-astilecture/diagram"
	"github.com/asticode/go-astilecture/gemini"
	"github.com/asticode/go-astilecture/index"
	"github.com/asticode/go-astilecture/openai"
	"github.com/asticode/go-astilecture/search"
	"github.com/asticode/go-astilecture/transcript"
	"github.com/asticode/go-astilog"
	asticonfig "github.com/asticode/go-astitools/config"
	"github.com/joho/godotenv"
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

	// Load .env
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		astilog.Warn(errors.Wrap(err, "main: loading .env failed"))
	}

	// Create configuration
	c := newConfiguration()

	// Create openai client
	o := openai.New(c.OpenAI)

	// Create gemini client
	ctx := context.Background()
	g, err := gemini.New(ctx, c.Gemini)
	if err != nil {
		astilog.Fatal(errors.Wrap(err, "main: creating gemini client failed"))
	}

	// Create searcher
	var sr answer.Searcher
	if c.Search.APIKey != "" && c.Search.CX != "" {
		s, err := search.New(ctx, c.Search)
		if err != nil {
			astilog.Fatal(errors.Wrap(err, "main: creating search service failed"))
		}
		sr = s
	} else {
		astilog.Warn("main: no search credentials, web search is disabled")
	}

	// Create services
	a := answer.New(sr,
		g.Model(gemini.FlashModel),
		o.Chat(openai.ChatModel, "", 300),
	)
	d := diagram.New(
		g.Model(gemini.FlashModel),
		o.Chat(openai.ChatModel, "", 1500),
	)
	f := transcript.NewFilter(transcript.FilterOptions{
		Classifier: transcript.NewModelClassifier(
			g.Model(gemini.FlashLiteModel),
			o.Chat(openai.ChatModel, "", 3),
		),
	})

	// Create index
	i := index.New(o, a, d, f, c.Index)
	defer i.Close()

	// Handle signals
	i.HandleSignals()

	// Serve
	i.Serve()

	// Blocking pattern
	i.Wait()
}

// Configuration represents a configuration
type Configuration struct {
	Gemini gemini.Options `toml:"gemini"`
	Index  index.Options  `toml:"index"`
	OpenAI openai.Options `toml:"openai"`
	Search search.Options `toml:"search"`
}

// newConfiguration creates a new configuration
func newConfiguration() *Configuration {
	// Global config
	gc := &Configuration{
		Gemini: gemini.Options{APIKey: os.Getenv("GEMINI_API_KEY")},
		Index: index.Options{
			Server: index.ServerOptions{
				Addr:     "127.0.0.1:4000",
				Password: "admin",
				Username: "admin",
			},
		},
		OpenAI: openai.Options{APIKey: os.Getenv("OPENAI_API_KEY")},
		Search: search.Options{
			APIKey: os.Getenv("GOOGLE_SEARCH_API_KEY"),
			CX:     os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
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
