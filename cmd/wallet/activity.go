package main

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/urfave/cli/v2"
)

var activity = cli.Command{
	Name:  "activity",
	Usage: "list the most recent activity of the daemon",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "wallet",
			Usage: "show only the activity of the given wallet",
		},
		&cli.IntFlag{
			Name:  "page",
			Usage: "the page number",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "the number of entries per page",
			Value: 25,
		},
		&cli.StringFlag{
			Name:  "id",
			Usage: "show only the activity with the given id",
		},
	},
	Action: activityAction,
}

func activityAction(ctx *cli.Context) error {
	var resp interface{}

	if id := ctx.String("id"); id != "" {
		path := fmt.Sprintf("/v1/activity/%s", url.PathEscape(id))
		if err := doRequest(http.MethodGet, path, nil, &resp); err != nil {
			return err
		}
		printRespJSON(resp)
		return nil
	}

	query := url.Values{}
	if wallet := ctx.String("wallet"); wallet != "" {
		query.Set("wallet", wallet)
	}
	query.Set("page", strconv.Itoa(ctx.Int("page")))
	query.Set("limit", strconv.Itoa(ctx.Int("limit")))

	if err := doRequest(
		http.MethodGet, "/v1/activity?"+query.Encode(), nil, &resp,
	); err != nil {
		return err
	}

	printRespJSON(resp)
	return nil
}
