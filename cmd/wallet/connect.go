package main

import (
	"errors"
	"net/http"

	"github.com/urfave/cli/v2"
)

var connect = cli.Command{
	Name:      "connect",
	Usage:     "connect to a wallet extension of the paired page",
	ArgsUsage: "<unisat|xverse|magic-eden>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "network",
			Aliases: []string{"n"},
			Usage:   "mainnet or testnet, defaults to the network of the local state",
		},
	},
	Action: connectAction,
}

var disconnect = cli.Command{
	Name:   "disconnect",
	Usage:  "forget the connected wallet",
	Action: disconnectAction,
}

func connectAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("missing wallet name")
	}

	network := ctx.String("network")
	if network == "" {
		if state, err := getState(); err == nil {
			network = state[networkStateKey]
		}
	}

	var resp interface{}
	if err := doRequest(http.MethodPost, "/v1/connect", map[string]string{
		"wallet":  ctx.Args().First(),
		"network": network,
	}, &resp); err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func disconnectAction(_ *cli.Context) error {
	var resp interface{}
	if err := doRequest(http.MethodPost, "/v1/disconnect", nil, &resp); err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
