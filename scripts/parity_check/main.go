// Command parity_check compares values served by the dashboard backend with
// the same values read straight from the data gateway.
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type target struct {
	Name          string `json:"name"`
	BackendMethod string `json:"backendMethod"`
	BackendPath   string `json:"backendPath"`
	BackendField  string `json:"backendField"`
	GatewayPath   string `json:"gatewayPath"`
	GatewayField  string `json:"gatewayField"`
	Critical      bool   `json:"critical"`
}

type config struct {
	Targets []target `json:"targets"`
}

type comparison struct {
	Target          target
	BackendValue    interface{}
	GatewayValue    interface{}
	Match           bool
	Error           error
	DurationBackend time.Duration
	DurationGateway time.Duration
}

func main() {
	var (
		backendBase string
		gatewayBase string
		targetsPath string
		timeout     time.Duration
	)

	flag.StringVar(&backendBase, "backend-base", "http://localhost:8080/api/v1", "Dashboard backend base URL")
	flag.StringVar(&gatewayBase, "gateway-base", "http://127.0.0.1:8000/api", "Data gateway base URL")
	flag.StringVar(&targetsPath, "targets", filepath.Join("scripts", "parity_check", "targets.json"), "Path to JSON targets file")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "HTTP client timeout")
	flag.Parse()

	targets, err := loadTargets(targetsPath)
	if err != nil {
		log.Fatalf("failed to load targets: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	session := "parity-" + uuid.NewString()
	var (
		comparisons  []comparison
		breaking     int
		optionalDiff int
	)

	for _, t := range targets {
		comp := compareTarget(client, backendBase, gatewayBase, session, t)
		if comp.Error != nil || !comp.Match {
			if t.Critical {
				breaking++
			} else {
				optionalDiff++
			}
		}
		comparisons = append(comparisons, comp)
	}

	printReport(comparisons)

	fmt.Printf("Breaking diffs: %d, Optional diffs: %d\n", breaking, optionalDiff)
	if breaking > 0 {
		os.Exit(1)
	}
}

func loadTargets(path string) ([]target, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("no targets defined in %s", path)
	}
	return cfg.Targets, nil
}

func compareTarget(client *http.Client, backendBase, gatewayBase, session string, tgt target) comparison {
	comp := comparison{Target: tgt}

	backendDoc, backendDur, err := fetchJSON(client, tgt.BackendMethod, backendBase, tgt.BackendPath, session)
	comp.DurationBackend = backendDur
	if err != nil {
		comp.Error = fmt.Errorf("backend request failed: %w", err)
		return comp
	}
	gatewayDoc, gatewayDur, err := fetchJSON(client, http.MethodGet, gatewayBase, tgt.GatewayPath, "")
	comp.DurationGateway = gatewayDur
	if err != nil {
		comp.Error = fmt.Errorf("gateway request failed: %w", err)
		return comp
	}

	if comp.BackendValue, err = lookup(backendDoc, tgt.BackendField); err != nil {
		comp.Error = fmt.Errorf("backend field: %w", err)
		return comp
	}
	if comp.GatewayValue, err = lookup(gatewayDoc, tgt.GatewayField); err != nil {
		comp.Error = fmt.Errorf("gateway field: %w", err)
		return comp
	}
	comp.Match = reflect.DeepEqual(comp.BackendValue, comp.GatewayValue)
	return comp
}

func fetchJSON(client *http.Client, method, base, path, session string) (interface{}, time.Duration, error) {
	if client == nil {
		return nil, 0, errors.New("nil client")
	}
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequest(method, strings.TrimRight(base, "/")+path, nil)
	if err != nil {
		return nil, 0, err
	}
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, elapsed, err
	}
	if resp.StatusCode >= 300 {
		return nil, elapsed, fmt.Errorf("status %d", resp.StatusCode)
	}
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, elapsed, err
	}
	return doc, elapsed, nil
}

// lookup walks a dotted path such as data.rows.0.cveId. The pseudo field
// "#" yields the length of an array or object.
func lookup(doc interface{}, path string) (interface{}, error) {
	current := doc
	if path == "" {
		return normalize(current), nil
	}
	for _, part := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]interface{}:
			if part == "#" {
				current = float64(len(node))
				continue
			}
			next, ok := node[part]
			if !ok {
				return nil, fmt.Errorf("missing key %q", part)
			}
			current = next
		case []interface{}:
			if part == "#" {
				current = float64(len(node))
				continue
			}
			idx, err := strconv.Atoi(part)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("bad index %q", part)
			}
			current = node[idx]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q", current, part)
		}
	}
	return normalize(current), nil
}

func normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		for k, v2 := range val {
			val[k] = normalize(v2)
		}
	case []interface{}:
		for i, v2 := range val {
			val[i] = normalize(v2)
		}
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
	}
	return v
}

func printReport(results []comparison) {
	fmt.Println("Parity Check Report")
	fmt.Println("===================")
	for _, res := range results {
		status := "OK"
		if res.Error != nil {
			status = "ERROR"
		} else if !res.Match {
			status = "DIFF"
		}
		fmt.Printf("[%s] %s\n", status, res.Target.Name)
		fmt.Printf("  Backend %s (%s) => %v\n", res.Target.BackendPath, res.DurationBackend, res.BackendValue)
		fmt.Printf("  Gateway %s (%s) => %v\n", res.Target.GatewayPath, res.DurationGateway, res.GatewayValue)
		if res.Error != nil {
			fmt.Printf("  Error: %v\n", res.Error)
		}
	}
}
