// metricsq is an interactive shell for querying a running metricsd
// instance. When stdin is not a terminal it reads commands line by line,
// which makes it usable in scripts.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"golang.org/x/term"
)

const helpText = `Commands:
  metrics                                      list available metrics
  query <metric> <entity,...> [start] [end]    fetch metric data
  summary <metric> [entity,...]                per-entity statistics
  refresh                                      repopulate data files
  help                                         show this help
  exit                                         quit`

type client struct {
	base string
	http *http.Client
}

func (c *client) get(path string) ([]byte, error) {
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *client) post(path string) ([]byte, error) {
	resp, err := c.http.Post(c.base+path, "application/json", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// metricNames fetches the catalog for tab completion. Failures yield an
// empty list; completion is best effort.
func (c *client) metricNames() []string {
	body, err := c.get("/metrics")
	if err != nil {
		return nil
	}
	var payload struct {
		Metrics []struct {
			Name string `json:"name"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil
	}
	names := make([]string, 0, len(payload.Metrics))
	for _, m := range payload.Metrics {
		names = append(names, m.Name)
	}
	return names
}

func printJSON(body []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, body, "", "  "); err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(buf.String())
}

// execute runs one command line against the server.
func execute(c *client, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return true
	}

	var (
		body []byte
		err  error
	)

	switch fields[0] {
	case "exit", "quit":
		return false
	case "help":
		fmt.Println(helpText)
		return true
	case "metrics":
		body, err = c.get("/metrics")
	case "refresh":
		body, err = c.post("/refresh-metrics")
	case "query":
		if len(fields) < 3 {
			fmt.Println("usage: query <metric> <entity,...> [start_date] [end_date]")
			return true
		}
		q := url.Values{"entity": {fields[2]}}
		if len(fields) > 3 {
			q.Set("start_date", fields[3])
		}
		if len(fields) > 4 {
			q.Set("end_date", fields[4])
		}
		body, err = c.get("/metrics/" + url.PathEscape(fields[1]) + "?" + q.Encode())
	case "summary":
		if len(fields) < 2 {
			fmt.Println("usage: summary <metric> [entity,...]")
			return true
		}
		path := "/metrics/" + url.PathEscape(fields[1]) + "/summary"
		if len(fields) > 2 {
			path += "?" + url.Values{"entity": {fields[2]}}.Encode()
		}
		body, err = c.get(path)
	default:
		fmt.Printf("unknown command %q (try help)\n", fields[0])
		return true
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return true
	}
	printJSON(body)
	return true
}

func completer(c *client) prompt.Completer {
	commands := []prompt.Suggest{
		{Text: "metrics", Description: "list available metrics"},
		{Text: "query", Description: "fetch metric data"},
		{Text: "summary", Description: "per-entity statistics"},
		{Text: "refresh", Description: "repopulate data files"},
		{Text: "help", Description: "show help"},
		{Text: "exit", Description: "quit"},
	}

	return func(d prompt.Document) []prompt.Suggest {
		fields := strings.Fields(d.TextBeforeCursor())
		word := d.GetWordBeforeCursor()

		// Completing the command itself.
		if len(fields) == 0 || (len(fields) == 1 && word != "") {
			return prompt.FilterHasPrefix(commands, word, true)
		}

		// Completing the metric argument of query/summary.
		if (fields[0] == "query" || fields[0] == "summary") && len(fields) <= 2 {
			var suggests []prompt.Suggest
			for _, name := range c.metricNames() {
				suggests = append(suggests, prompt.Suggest{Text: name})
			}
			return prompt.FilterHasPrefix(suggests, word, true)
		}

		return nil
	}
}

func main() {
	addr := flag.String("addr", "http://127.0.0.1:8080", "metricsd base URL")
	flag.Parse()

	c := &client{
		base: strings.TrimRight(*addr, "/"),
		http: &http.Client{Timeout: 30 * time.Second},
	}

	// Scripted mode: read commands from stdin when it is not a terminal.
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if !execute(c, scanner.Text()) {
				return
			}
		}
		return
	}

	fmt.Println("metricsq - interactive metric query shell (help for commands)")
	p := prompt.New(
		func(line string) {
			if !execute(c, line) {
				os.Exit(0)
			}
		},
		completer(c),
		prompt.OptionPrefix("metricsq> "),
		prompt.OptionTitle("metricsq"),
	)
	p.Run()
}
