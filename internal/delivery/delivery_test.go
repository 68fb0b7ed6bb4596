package delivery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/m3rciful/coursebot/internal/catalog"
	"github.com/m3rciful/coursebot/internal/delivery"
	"github.com/m3rciful/coursebot/internal/delivery/deliverytest"
)

func TestDeliverDispatchesByKind(t *testing.T) {
	cases := []struct {
		item catalog.Item
		op   string
	}{
		{catalog.TextItem("hello"), "text"},
		{catalog.MediaItem(catalog.KindPhoto, "p1", "cap"), "photo"},
		{catalog.MediaItem(catalog.KindDocument, "d1", ""), "document"},
		{catalog.MediaItem(catalog.KindVideo, "v1", ""), "video"},
		{catalog.MediaItem(catalog.KindAudio, "a1", ""), "audio"},
		{catalog.MediaItem(catalog.KindVoice, "vo1", ""), "voice"},
	}
	for _, tc := range cases {
		tr := deliverytest.New()
		res := delivery.Deliver(context.Background(), tr, 10, tc.item)
		if !res.OK() {
			t.Fatalf("%s: unexpected error %v", tc.op, res.Err)
		}
		sent := tr.To(10)
		if len(sent) != 1 || sent[0].Op != tc.op {
			t.Fatalf("%s: sent = %+v", tc.op, sent)
		}
		if tc.op != "text" && (sent[0].FileID != tc.item.FileID || sent[0].Caption != tc.item.Caption) {
			t.Fatalf("%s: payload mismatch %+v", tc.op, sent[0])
		}
	}
}

func TestDeliverAllContinuesAfterFailure(t *testing.T) {
	tr := deliverytest.New()
	items := []catalog.Item{
		catalog.TextItem("one"),
		{Kind: catalog.KindPhoto},
		catalog.TextItem("three"),
	}
	results := delivery.DeliverAll(context.Background(), tr, 5, items, func(res delivery.Result) {
		_ = tr.SendText(context.Background(), res.ChatID, "failed")
	})
	ok, failed := delivery.Summary(results)
	if ok != 2 || failed != 1 {
		t.Fatalf("summary = %d ok, %d failed", ok, failed)
	}
	sent := tr.To(5)
	if len(sent) != 3 || sent[0].Text != "one" || sent[1].Text != "failed" || sent[2].Text != "three" {
		t.Fatalf("sent = %+v", sent)
	}
}

func TestDeliverReportsTransportError(t *testing.T) {
	tr := deliverytest.New()
	boom := errors.New("blocked")
	tr.Fail(7, boom)
	res := delivery.Deliver(context.Background(), tr, 7, catalog.TextItem("x"))
	if !errors.Is(res.Err, boom) {
		t.Fatalf("err = %v, want %v", res.Err, boom)
	}
}
