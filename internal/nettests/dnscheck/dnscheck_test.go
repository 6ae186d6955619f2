package dnscheck

import (
	"context"
	"testing"

	"github.com/TheTorProject/libight/internal/model"
	"github.com/TheTorProject/libight/internal/resolver"
)

type fakeBackend struct {
	ipv4 []string
	err  error
}

func (f *fakeBackend) Query(ctx context.Context, class resolver.Class, qtype resolver.Type, name string) (*resolver.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	msg := &resolver.Message{}
	for _, addr := range f.ipv4 {
		msg.Answers = append(msg.Answers, resolver.Answer{IPv4: addr})
	}
	return msg, nil
}

func TestMainConsistentWhenOverlapping(t *testing.T) {
	test := &Test{
		Bootstrap: &fakeBackend{ipv4: []string{"1.2.3.4", "5.6.7.8"}},
		Target:    &fakeBackend{ipv4: []string{"5.6.7.8"}},
	}
	var got map[string]interface{}
	_ = test.Main("example.org", model.Settings{}, func(tk map[string]interface{}) { got = tk })
	if got["consistent"] != true {
		t.Fatalf("expected consistent, got %v", got)
	}
}

func TestAddrSetsOverlap(t *testing.T) {
	if !addrSetsOverlap([]string{"1.1.1.1"}, []string{"1.1.1.1", "2.2.2.2"}) {
		t.Fatal("expected overlap")
	}
	if addrSetsOverlap([]string{"1.1.1.1"}, []string{"2.2.2.2"}) {
		t.Fatal("expected no overlap")
	}
	if !addrSetsOverlap(nil, nil) {
		t.Fatal("two empty sets should be considered consistent")
	}
}
