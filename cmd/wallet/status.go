package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var providers = cli.Command{
	Name:   "providers",
	Usage:  "list the supported wallets and whether they are installed",
	Action: providersAction,
}

var status = cli.Command{
	Name:   "status",
	Usage:  "get the connection state and the installed wallets",
	Action: statusAction,
}

func providersAction(_ *cli.Context) error {
	var resp interface{}
	if err := doRequest(http.MethodGet, "/v1/providers", nil, &resp); err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func statusAction(_ *cli.Context) error {
	var state, providerList map[string]interface{}

	eg := &errgroup.Group{}
	eg.Go(func() error {
		return doRequest(http.MethodGet, "/v1/state", nil, &state)
	})
	eg.Go(func() error {
		return doRequest(http.MethodGet, "/v1/providers", nil, &providerList)
	})
	if err := eg.Wait(); err != nil {
		return err
	}

	state["providers"] = providerList["providers"]
	printRespJSON(state)
	return nil
}
