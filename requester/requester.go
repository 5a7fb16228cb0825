// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package requester

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/gorilla/rpc/v2/json2"
)

var ErrBadStatus = errors.New("received unexpected status")

type EndpointRequester struct {
	cli  *http.Client
	uri  string
	base string
}

// New returns a requester that calls "[base].[method]" at [uri].
func New(uri string, base string) *EndpointRequester {
	return &EndpointRequester{
		cli:  http.DefaultClient,
		uri:  uri,
		base: base,
	}
}

func (e *EndpointRequester) SendRequest(
	ctx context.Context,
	method string,
	params interface{},
	reply interface{},
) error {
	uri, err := url.Parse(e.uri)
	if err != nil {
		return err
	}
	requestBodyBytes, err := json2.EncodeClientRequest(
		fmt.Sprintf("%s.%s", e.base, method),
		params,
	)
	if err != nil {
		return fmt.Errorf("problem marshaling request: %w", err)
	}

	request, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		uri.String(),
		bytes.NewBuffer(requestBodyBytes),
	)
	if err != nil {
		return fmt.Errorf("problem creating request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")

	resp, err := e.cli.Do(request)
	if err != nil {
		return fmt.Errorf("problem issuing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: status=%d body=%q", ErrBadStatus, resp.StatusCode, body)
	}
	return json2.DecodeClientResponse(resp.Body, reply)
}
