package ident

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Clock / IDGen は service 層に注入するシーム。
// テストでは固定時刻・固定IDに差し替える。

type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

type IDGen interface {
	New() (string, error)
}

type ULIDGen struct{}

func (ULIDGen) New() (string, error) {
	t := time.Now().UTC()
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(t), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
