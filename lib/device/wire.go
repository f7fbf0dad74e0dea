// Copyright 2026 The Quotasync Authors
// SPDX-License-Identifier: Apache-2.0

package device

import (
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/quotasync/quotasync/lib/textenc"
)

// wireEncoding is the encoding the device declares on string fields.
const wireEncoding = "Windows-1252"

// operationRequest is the request envelope. Exactly one of the
// operation fields is set per request.
type operationRequest struct {
	XMLName       xml.Name `xml:"operation"`
	Authorization string   `xml:"authorization"`

	Add    *addAccountRequest    `xml:"addUserRequest,omitempty"`
	Delete *deleteAccountRequest `xml:"deleteUserRequest,omitempty"`
	Set    *setAccountRequest    `xml:"setUserInfoRequest,omitempty"`
	Get    *getAccountRequest    `xml:"getUserInfoRequest,omitempty"`
}

// requestTarget addresses an operation at a specific account code. An
// empty Code in a get request selects every account.
type requestTarget struct {
	Code     string    `xml:"userCode"`
	DeviceID *struct{} `xml:"deviceId,omitempty"`
}

type addAccountRequest struct {
	Target requestTarget `xml:"target"`
	User   wireUser      `xml:"user"`
}

type deleteAccountRequest struct {
	Target requestTarget `xml:"target"`
}

type setAccountRequest struct {
	Target requestTarget `xml:"target"`
	User   wireUser      `xml:"user"`
}

// getAccountRequest carries a field template: each non-nil element
// asks the device to include that field in the result.
type getAccountRequest struct {
	Target requestTarget `xml:"target"`
	User   userTemplate  `xml:"user"`
}

type userTemplate struct {
	Version  string    `xml:"version,attr"`
	Code     *struct{} `xml:"userCode"`
	Name     *struct{} `xml:"userCodeName"`
	Restrict *struct{} `xml:"restrictInfo"`
	Stats    *struct{} `xml:"statisticsInfo"`
}

// wireUser is the user record in the device's "1.1" schema, used both
// in requests and responses. The code is a string because the device
// reports the built-in pseudo-account as the literal "other".
type wireUser struct {
	Version  string          `xml:"version,attr"`
	Code     string          `xml:"userCode"`
	Type     string          `xml:"userType,omitempty"`
	Name     *encodedString  `xml:"userCodeName,omitempty"`
	Restrict *wireRestrict   `xml:"restrictInfo,omitempty"`
	Stats    *wireStatistics `xml:"statisticsInfo,omitempty"`
}

// encodedString is a string field carrying its own encoding: base64
// of Windows-1252 bytes when the enc attribute names an encoding,
// plain text otherwise.
type encodedString struct {
	Encoding string `xml:"enc,attr,omitempty"`
	Value    string `xml:",chardata"`
}

// newEncodedString encodes s for the wire, transliterating anything
// outside the target repertoire.
func newEncodedString(s string) *encodedString {
	return &encodedString{
		Encoding: wireEncoding,
		Value:    base64.StdEncoding.EncodeToString(textenc.EncodeLossy(s)),
	}
}

// decode returns the field's plain UTF-8 value.
func (e *encodedString) decode() (string, error) {
	if e == nil {
		return "", nil
	}
	if e.Encoding == "" || e.Encoding == "none" {
		return e.Value, nil
	}
	raw, err := base64.StdEncoding.DecodeString(e.Value)
	if err != nil {
		return "", fmt.Errorf("decoding %s string field: %w", e.Encoding, err)
	}
	return textenc.Decode(raw), nil
}

// wireGrant is the device's availability flag: one of the two empty
// elements is present.
type wireGrant struct {
	Available  *struct{} `xml:"available,omitempty"`
	Restricted *struct{} `xml:"restricted,omitempty"`
}

func newWireGrant(granted bool) wireGrant {
	if granted {
		return wireGrant{Available: &struct{}{}}
	}
	return wireGrant{Restricted: &struct{}{}}
}

func (g wireGrant) granted() bool { return g.Available != nil }

type wireRestrict struct {
	Copy    wireGrant `xml:"copyInfo>monochrome"`
	Print   wireGrant `xml:"printerInfo>monochrome"`
	Scan    wireGrant `xml:"scannerInfo>scan"`
	Storage wireGrant `xml:"localStorageInfo>plot"`
}

func newWireRestrict(p Permissions) *wireRestrict {
	return &wireRestrict{
		Copy:    newWireGrant(p.Copy),
		Print:   newWireGrant(p.Print),
		Scan:    newWireGrant(p.Scan),
		Storage: newWireGrant(p.Storage),
	}
}

func (r *wireRestrict) permissions() Permissions {
	if r == nil {
		return Permissions{}
	}
	return Permissions{
		Copy:    r.Copy.granted(),
		Print:   r.Print.granted(),
		Scan:    r.Scan.granted(),
		Storage: r.Storage.granted(),
	}
}

type wireStatistics struct {
	CopyA4  int `xml:"copyInfo>monochrome>singleSize"`
	CopyA3  int `xml:"copyInfo>monochrome>doubleSize"`
	PrintA4 int `xml:"printerInfo>monochrome>singleSize"`
	PrintA3 int `xml:"printerInfo>monochrome>doubleSize"`
	ScanA4  int `xml:"scannerInfo>monochrome>singleSize"`
	ScanA3  int `xml:"scannerInfo>monochrome>doubleSize"`
}

func newWireStatistics(c Counters) *wireStatistics {
	return &wireStatistics{
		CopyA4:  c.CopyA4,
		CopyA3:  c.CopyA3,
		PrintA4: c.PrintA4,
		PrintA3: c.PrintA3,
		ScanA4:  c.ScanA4,
		ScanA3:  c.ScanA3,
	}
}

func (s *wireStatistics) counters() Counters {
	if s == nil {
		return Counters{}
	}
	return Counters{
		CopyA4:  s.CopyA4,
		CopyA3:  s.CopyA3,
		PrintA4: s.PrintA4,
		PrintA3: s.PrintA3,
		ScanA4:  s.ScanA4,
		ScanA3:  s.ScanA3,
	}
}

// newWireUser builds the request-side record for an account. Stats
// are never sent: counters are device-owned.
func newWireUser(a Account) wireUser {
	return wireUser{
		Version:  "1.1",
		Code:     strconv.Itoa(a.Code),
		Type:     "general",
		Name:     newEncodedString(a.Name),
		Restrict: newWireRestrict(a.Permissions),
	}
}

// account converts a response-side record. The "other" pseudo-account
// maps to code 0 with its literal name.
func (u wireUser) account() (Account, error) {
	if u.Code == "other" {
		return Account{Code: 0, Name: "other"}, nil
	}
	code, err := strconv.Atoi(u.Code)
	if err != nil {
		return Account{}, fmt.Errorf("parsing account code %q: %w", u.Code, err)
	}
	name, err := u.Name.decode()
	if err != nil {
		return Account{}, fmt.Errorf("account %d: %w", code, err)
	}
	return Account{
		Code:        code,
		Name:        name,
		Permissions: u.Restrict.permissions(),
		Counters:    u.Stats.counters(),
	}, nil
}

// operationResult is the response envelope. The device sets exactly
// one result element, mirroring the request.
type operationResult struct {
	XMLName xml.Name `xml:"operationResult"`

	Add    *actionResult `xml:"addUserResult"`
	Delete *actionResult `xml:"deleteUserResult"`
	Set    *actionResult `xml:"setUserInfoResult"`
	Get    *getResult    `xml:"getUserInfoResult"`
}

type actionResult struct {
	Succeeded bool   `xml:"isSucceeded"`
	ErrorCode string `xml:"errorCode"`
}

type getResult struct {
	Succeeded bool       `xml:"isSucceeded"`
	ErrorCode string     `xml:"errorCode"`
	Users     []wireUser `xml:"result>user"`
}
