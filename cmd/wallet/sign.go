package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"
)

var signpsbt = cli.Command{
	Name:  "signpsbt",
	Usage: "sign a base64 encoded psbt with the connected wallet",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "psbt",
			Usage:    "the base64 encoded psbt to sign",
			Required: true,
		},
		&cli.StringSliceFlag{
			Name:  "input",
			Usage: "an input to sign in the form <address>:<index>[,<index>...], can be repeated",
		},
		&cli.BoolFlag{
			Name:  "broadcast",
			Usage: "whether the wallet should broadcast the signed transaction",
		},
	},
	Action: signPsbtAction,
}

var signmessage = cli.Command{
	Name:      "signmessage",
	Usage:     "sign a message with the payment address of the connected wallet",
	ArgsUsage: "<message>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "scheme",
			Usage: "ecdsa or bip322-simple",
			Value: "ecdsa",
		},
	},
	Action: signMessageAction,
}

type inputToSign struct {
	Address        string `json:"address"`
	SigningIndexes []int  `json:"signingIndexes"`
}

func signPsbtAction(ctx *cli.Context) error {
	inputs, err := parseInputsToSign(ctx.StringSlice("input"))
	if err != nil {
		return err
	}

	var resp interface{}
	if err := doRequest(http.MethodPost, "/v1/sign/psbt", map[string]interface{}{
		"psbt":         ctx.String("psbt"),
		"inputsToSign": inputs,
		"broadcast":    ctx.Bool("broadcast"),
	}, &resp); err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func signMessageAction(ctx *cli.Context) error {
	if ctx.NArg() < 1 {
		return errors.New("missing message")
	}

	var resp interface{}
	if err := doRequest(http.MethodPost, "/v1/sign/message", map[string]string{
		"message": strings.Join(ctx.Args().Slice(), " "),
		"scheme":  ctx.String("scheme"),
	}, &resp); err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}

func parseInputsToSign(values []string) ([]inputToSign, error) {
	inputs := make([]inputToSign, 0, len(values))
	for _, v := range values {
		i := strings.LastIndex(v, ":")
		if i <= 0 || i == len(v)-1 {
			return nil, fmt.Errorf("invalid input %s, must be <address>:<index>", v)
		}

		indexes := make([]int, 0)
		for _, s := range strings.Split(v[i+1:], ",") {
			index, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || index < 0 {
				return nil, fmt.Errorf("invalid index %s for input %s", s, v)
			}
			indexes = append(indexes, index)
		}
		inputs = append(inputs, inputToSign{v[:i], indexes})
	}
	return inputs, nil
}
