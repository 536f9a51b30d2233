package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"
)

const (
	rpcServerStateKey = "rpcserver"
	networkStateKey   = "network"
)

var (
	version = "dev"

	walletDataDir = btcutil.AppDataDir("wallet-cli", false)
	statePath     = filepath.Join(walletDataDir, "state.json")

	// prompts are bound by the daemon, the client only guards against a
	// daemon that never replies.
	httpClient = &http.Client{Timeout: 10 * time.Minute}
)

func main() {
	app := cli.NewApp()

	app.Version = version
	app.Name = "wallet"
	app.Usage = "Command line interface for the walletd daemon"
	app.Commands = append(
		app.Commands,
		&config,
		&providers,
		&status,
		&connect,
		&disconnect,
		&signpsbt,
		&signmessage,
		&activity,
	)

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid config state: %w", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(walletDataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(walletDataDir, os.ModeDir|0755); err != nil {
			return err
		}
	}

	currentData, err := getState()
	if err != nil {
		currentData = map[string]string{}
	}

	jsonString, err := json.Marshal(merge(currentData, data))
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}
	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func getDaemonURL() (string, error) {
	state, err := getState()
	if err != nil {
		return "", err
	}
	addr, ok := state[rpcServerStateKey]
	if !ok || addr == "" {
		return "", errors.New("set the daemon address with `config set rpcserver`")
	}
	if !strings.HasPrefix(addr, "http://") && !strings.HasPrefix(addr, "https://") {
		addr = "http://" + addr
	}
	return strings.TrimSuffix(addr, "/"), nil
}

type daemonError struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// doRequest calls the given endpoint of the daemon and decodes the response
// into dest, if not nil.
func doRequest(method, path string, body, dest interface{}) error {
	baseURL, err := getDaemonURL()
	if err != nil {
		return err
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach daemon: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var derr daemonError
		if err := json.NewDecoder(resp.Body).Decode(&derr); err != nil || derr.Error == "" {
			return fmt.Errorf("daemon replied with status %d", resp.StatusCode)
		}
		if derr.Kind != "" {
			return fmt.Errorf("%s (%s)", derr.Error, derr.Kind)
		}
		return errors.New(derr.Error)
	}

	if dest == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dest)
}

func printRespJSON(resp interface{}) {
	buf, err := json.MarshalIndent(resp, "", "\t")
	if err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(string(buf))
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "[wallet] %v\n", err)
	os.Exit(1)
}
