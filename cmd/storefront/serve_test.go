package main

import (
	"errors"
	"strings"
	"testing"
)

func TestClosersRunInReverseAndCollectErrors(t *testing.T) {
	t.Parallel()

	var order []string
	var c closers
	c.add(func() error { order = append(order, "db"); return errors.New("db: close failed") })
	c.add(func() error { order = append(order, "redis"); return nil })
	c.add(func() error { order = append(order, "broker"); return errors.New("broker: close failed") })

	err := c.close()
	if got := strings.Join(order, ","); got != "broker,redis,db" {
		t.Errorf("close order = %s, want broker,redis,db", got)
	}
	if err == nil || !strings.Contains(err.Error(), "db: close failed") || !strings.Contains(err.Error(), "broker: close failed") {
		t.Errorf("close() error = %v, want both failures", err)
	}
}

func TestClosersWithoutErrors(t *testing.T) {
	t.Parallel()

	var c closers
	c.add(func() error { return nil })
	if err := c.close(); err != nil {
		t.Errorf("close() error = %v, want nil", err)
	}
}
