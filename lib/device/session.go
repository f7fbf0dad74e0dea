// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/quotasync/quotasync/lib/clock"
	"github.com/quotasync/quotasync/lib/textenc"
)

// busyErrorCode is the device error code signalling that the panel or
// another client holds the maintenance unit. Retryable.
const busyErrorCode = "systemBusy"

// busyRetryDelay is the pause between busy retries.
const busyRetryDelay = 200 * time.Millisecond

// ErrNotFound is returned by GetAccount when no account carries the
// requested code.
var ErrNotFound = errors.New("account not found")

// DirectoryError is a failure reported by the device itself, carrying
// the device's error code.
type DirectoryError struct {
	// Op is the wire operation that failed (e.g. "addUser").
	Op string

	// Code is the device's error code (e.g. "systemBusy").
	Code string
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("device %s failed (code %s)", e.Op, e.Code)
}

// SessionConfig holds the parameters for opening a maintenance
// session. Host and Credential are required.
type SessionConfig struct {
	// Host is the device's hostname or address.
	Host string

	// Port is the device's HTTP port. Defaults to 80.
	Port int

	// Credential is the plain maintenance credential. It is encoded
	// into the device's authorization form once, at construction.
	Credential string

	// RetryBusy enables transparent retry while the device reports
	// systemBusy. Each retry waits busyRetryDelay on Clock.
	RetryBusy bool

	// HTTPClient overrides the default http.Client. Optional.
	HTTPClient *http.Client

	// Clock paces busy retries. Defaults to clock.Real().
	Clock clock.Clock

	// Logger receives per-operation debug output. Optional.
	Logger *slog.Logger
}

// MaintenanceSession talks to the device's account maintenance
// endpoint. There is no session state on the wire: every operation is
// a self-contained request, so a MaintenanceSession is safe to reuse
// across runs.
type MaintenanceSession struct {
	endpoint      string
	authorization string
	retryBusy     bool
	httpClient    *http.Client
	clock         clock.Clock
	logger        *slog.Logger
}

// NewMaintenanceSession validates the configuration and encodes the
// credential. No network traffic happens until the first operation.
func NewMaintenanceSession(cfg SessionConfig) (*MaintenanceSession, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("device session: Host is required")
	}
	authorization, err := EncodeCredential(cfg.Credential)
	if err != nil {
		return nil, fmt.Errorf("device session: %w", err)
	}
	port := cfg.Port
	if port == 0 {
		port = 80
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MaintenanceSession{
		endpoint:      fmt.Sprintf("http://%s:%d/System/usermaint/", cfg.Host, port),
		authorization: authorization,
		retryBusy:     cfg.RetryBusy,
		httpClient:    httpClient,
		clock:         clk,
		logger:        logger,
	}, nil
}

// ListAccounts fetches every account in the directory, including the
// built-in "other" pseudo-account (code 0).
func (s *MaintenanceSession) ListAccounts(ctx context.Context) ([]Account, error) {
	result, err := s.perform(ctx, "getUserInfo", operationRequest{
		Get: &getAccountRequest{
			Target: requestTarget{Code: ""},
			User:   fullTemplate(),
		},
	})
	if err != nil {
		return nil, err
	}
	accounts := make([]Account, 0, len(result.Get.Users))
	for _, user := range result.Get.Users {
		account, err := user.account()
		if err != nil {
			return nil, fmt.Errorf("listing accounts: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// GetAccount fetches a single account by code. Returns ErrNotFound
// when the directory has no account with that code.
func (s *MaintenanceSession) GetAccount(ctx context.Context, code int) (Account, error) {
	result, err := s.perform(ctx, "getUserInfo", operationRequest{
		Get: &getAccountRequest{
			Target: requestTarget{Code: fmt.Sprintf("%d", code)},
			User:   fullTemplate(),
		},
	})
	if err != nil {
		return Account{}, err
	}
	for _, user := range result.Get.Users {
		account, err := user.account()
		if err != nil {
			return Account{}, err
		}
		if account.Code == code {
			return account, nil
		}
	}
	return Account{}, fmt.Errorf("account %d: %w", code, ErrNotFound)
}

// AddAccount creates a new account with the given code, name, and
// permissions. Counters start at zero and are device-owned.
func (s *MaintenanceSession) AddAccount(ctx context.Context, account Account) error {
	if err := checkName(account.Name); err != nil {
		return fmt.Errorf("adding %s: %w", account, err)
	}
	_, err := s.perform(ctx, "addUser", operationRequest{
		Add: &addAccountRequest{
			Target: requestTarget{Code: fmt.Sprintf("%d", account.Code)},
			User:   newWireUser(account),
		},
	})
	return err
}

// UpdateAccount rewrites an existing account's name and permissions.
func (s *MaintenanceSession) UpdateAccount(ctx context.Context, account Account) error {
	if err := checkName(account.Name); err != nil {
		return fmt.Errorf("updating %s: %w", account, err)
	}
	_, err := s.perform(ctx, "setUserInfo", operationRequest{
		Set: &setAccountRequest{
			Target: requestTarget{
				Code:     fmt.Sprintf("%d", account.Code),
				DeviceID: &struct{}{},
			},
			User: newWireUser(account),
		},
	})
	return err
}

// DeleteAccount removes the account with the given code.
func (s *MaintenanceSession) DeleteAccount(ctx context.Context, code int) error {
	_, err := s.perform(ctx, "deleteUser", operationRequest{
		Delete: &deleteAccountRequest{
			Target: requestTarget{Code: fmt.Sprintf("%d", code)},
		},
	})
	return err
}

// checkName enforces the device's encoded name length limit.
func checkName(name string) error {
	if encoded := textenc.EncodeLossy(name); len(encoded) > MaxNameBytes {
		return fmt.Errorf("name %q exceeds %d bytes after encoding", name, MaxNameBytes)
	}
	return nil
}

// fullTemplate requests every user field in a get response.
func fullTemplate() userTemplate {
	return userTemplate{
		Version:  "1.1",
		Code:     &struct{}{},
		Name:     &struct{}{},
		Restrict: &struct{}{},
		Stats:    &struct{}{},
	}
}

// perform sends one operation envelope and returns the parsed result.
// While RetryBusy is set, systemBusy results are retried after a
// short sleep until the context is cancelled.
func (s *MaintenanceSession) perform(ctx context.Context, op string, request operationRequest) (*operationResult, error) {
	request.Authorization = s.authorization

	payload, err := xml.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("device %s: building request: %w", op, err)
	}
	body := append([]byte("<?xml version='1.0' encoding='us-ascii'?>"), payload...)

	for {
		result, err := s.post(ctx, body)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", op, err)
		}

		succeeded, code, err := result.outcome(op)
		if err != nil {
			return nil, fmt.Errorf("device %s: %w", op, err)
		}
		if succeeded {
			return result, nil
		}
		if s.retryBusy && code == busyErrorCode {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			s.logger.Debug("device busy, retrying", "operation", op)
			s.clock.Sleep(busyRetryDelay)
			continue
		}
		return nil, &DirectoryError{Op: op, Code: code}
	}
}

// post performs the HTTP exchange and parses the response envelope.
func (s *MaintenanceSession) post(ctx context.Context, body []byte) (*operationResult, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("Content-Type", "text/xml;charset=us-ascii")

	response, err := s.httpClient.Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected HTTP status %s", response.Status)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.CharsetReader = charsetReader

	var result operationResult
	if err := decoder.Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing response: %w", err)
	}
	return &result, nil
}

// charsetReader accepts the single-byte encodings the device declares
// on its responses. The stdlib decoder rejects any declared encoding
// other than UTF-8 without one of these. us-ascii is a UTF-8 subset
// and passes through; Windows-1252 is decoded byte by byte.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "us-ascii", "ascii", "utf-8":
		return input, nil
	case "windows-1252", "cp1252":
		data, err := io.ReadAll(input)
		if err != nil {
			return nil, err
		}
		return strings.NewReader(textenc.Decode(data)), nil
	}
	return nil, fmt.Errorf("unsupported response charset %q", charset)
}

// outcome extracts the success flag and error code for the named
// operation from the response envelope.
func (r *operationResult) outcome(op string) (succeeded bool, code string, err error) {
	switch op {
	case "addUser":
		if r.Add == nil {
			return false, "", fmt.Errorf("response missing addUserResult")
		}
		return r.Add.Succeeded, r.Add.ErrorCode, nil
	case "deleteUser":
		if r.Delete == nil {
			return false, "", fmt.Errorf("response missing deleteUserResult")
		}
		return r.Delete.Succeeded, r.Delete.ErrorCode, nil
	case "setUserInfo":
		if r.Set == nil {
			return false, "", fmt.Errorf("response missing setUserInfoResult")
		}
		return r.Set.Succeeded, r.Set.ErrorCode, nil
	case "getUserInfo":
		if r.Get == nil {
			return false, "", fmt.Errorf("response missing getUserInfoResult")
		}
		return r.Get.Succeeded, r.Get.ErrorCode, nil
	}
	return false, "", fmt.Errorf("unknown operation %q", op)
}
