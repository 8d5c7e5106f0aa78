package model_test

import (
	"testing"

	"github.com/niicolenco/tikbattle/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClassify(t *testing.T) {
	Convey("Given relay event names", t, func() {
		Convey("When the name contains a known keyword", func() {
			So(model.Classify("like"), ShouldEqual, model.KindLike)
			So(model.Classify("likes_batch"), ShouldEqual, model.KindLike)
			So(model.Classify("SHARE"), ShouldEqual, model.KindShare)
			So(model.Classify("gift"), ShouldEqual, model.KindGift)
			So(model.Classify("giftcombo"), ShouldEqual, model.KindGift)
		})

		Convey("When a name matches more than one keyword", func() {
			Convey("Then like wins over gift", func() {
				So(model.Classify("like_gift"), ShouldEqual, model.KindLike)
			})
			Convey("And share wins over gift", func() {
				So(model.Classify("share_gift"), ShouldEqual, model.KindShare)
			})
		})

		Convey("When the name is unrecognized", func() {
			So(model.Classify("follow"), ShouldEqual, model.KindUnknown)
			So(model.Classify(""), ShouldEqual, model.KindUnknown)
		})
	})
}

func TestEnvelopeFieldAccess(t *testing.T) {
	Convey("Given an envelope with a mixed payload", t, func() {
		e := model.Envelope{
			Type: "gift",
			Payload: map[string]any{
				"diamondCount": float64(10),
				"repeatCount":  "5",
				"giftName":     "Rose",
				"repeatEnd":    true,
				"junk":         "not-a-number",
			},
		}

		Convey("When reading numeric fields", func() {
			So(e.Int("diamondCount", 0), ShouldEqual, 10)
			So(e.Int("repeatCount", 1), ShouldEqual, 5)

			Convey("Then unreadable values fall back", func() {
				So(e.Int("junk", 7), ShouldEqual, 7)
				So(e.Int("missing", -1), ShouldEqual, -1)
			})
		})

		Convey("When probing for numeric fields", func() {
			So(e.HasInt("diamondCount"), ShouldBeTrue)
			So(e.HasInt("repeatCount"), ShouldBeTrue)
			So(e.HasInt("junk"), ShouldBeFalse)
			So(e.HasInt("missing"), ShouldBeFalse)
		})

		Convey("When reading strings and bools", func() {
			So(e.String("giftName"), ShouldEqual, "Rose")
			So(e.String("missing"), ShouldEqual, "")
			So(e.Bool("repeatEnd"), ShouldBeTrue)
			So(e.Bool("missing"), ShouldBeFalse)
		})
	})

	Convey("Given an envelope with a nil payload", t, func() {
		e := model.Envelope{Type: "like"}

		Convey("Then every accessor degrades to its fallback", func() {
			So(e.Int("count", 3), ShouldEqual, 3)
			So(e.HasInt("count"), ShouldBeFalse)
			So(e.String("giftName"), ShouldEqual, "")
			So(e.Bool("repeatEnd"), ShouldBeFalse)
		})
	})
}

func TestDecodeLike(t *testing.T) {
	Convey("Given like payload variants", t, func() {
		Convey("When an authoritative total is present", func() {
			e := model.Envelope{Type: "like", Payload: map[string]any{"totalLikeCount": float64(1200)}}
			l := model.DecodeLike(e)
			So(l.HasTotal, ShouldBeTrue)
			So(l.Total, ShouldEqual, 1200)
			So(l.Batch, ShouldEqual, 0)
		})

		Convey("When only a batch count is present", func() {
			e := model.Envelope{Type: "like", Payload: map[string]any{"likes": float64(15)}}
			l := model.DecodeLike(e)
			So(l.HasTotal, ShouldBeFalse)
			So(l.Batch, ShouldEqual, 15)
		})

		Convey("When both are present", func() {
			e := model.Envelope{Type: "like", Payload: map[string]any{
				"totalLikes": float64(500),
				"count":      float64(3),
			}}
			l := model.DecodeLike(e)
			So(l.HasTotal, ShouldBeTrue)
			So(l.Total, ShouldEqual, 500)
			So(l.Batch, ShouldEqual, 3)
		})

		Convey("When the total is non-numeric", func() {
			e := model.Envelope{Type: "like", Payload: map[string]any{"totalLikeCount": "oops"}}
			l := model.DecodeLike(e)
			So(l.HasTotal, ShouldBeFalse)
		})
	})
}

func TestDecodeGiftAndShare(t *testing.T) {
	Convey("Given a gift payload", t, func() {
		e := model.Envelope{Type: "gift", Payload: map[string]any{
			"giftName":     "Rocket",
			"giftType":     float64(1),
			"repeatEnd":    false,
			"diamondCount": float64(100),
			"repeatCount":  float64(3),
		}}

		Convey("Then all fields decode", func() {
			g := model.DecodeGift(e)
			So(g.Name, ShouldEqual, "Rocket")
			So(g.GiftType, ShouldEqual, 1)
			So(g.RepeatEnd, ShouldBeFalse)
			So(g.DiamondCount, ShouldEqual, 100)
			So(g.RepeatCount, ShouldEqual, 3)
		})

		Convey("And repeatCount defaults to one when absent", func() {
			delete(e.Payload, "repeatCount")
			g := model.DecodeGift(e)
			So(g.RepeatCount, ShouldEqual, 1)
		})
	})

	Convey("Given a share payload", t, func() {
		Convey("Then amount decodes with a default of one", func() {
			So(model.DecodeShare(model.Envelope{Type: "share", Payload: map[string]any{"amount": float64(4)}}).Amount, ShouldEqual, 4)
			So(model.DecodeShare(model.Envelope{Type: "share"}).Amount, ShouldEqual, 1)
		})
	})
}
