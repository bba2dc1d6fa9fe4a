package stage_test

import (
	"errors"
	"testing"
	"time"

	model "github.com/okian/sift/internal/domain/model"
	stage "github.com/okian/sift/internal/domain/stage"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNext(t *testing.T) {
	Convey("Given the linear stage sequence", t, func() {
		Convey("Then each stage should yield its immediate successor", func() {
			next, ok := stage.Next(model.StageQuestionnaire)
			So(ok, ShouldBeTrue)
			So(next, ShouldEqual, model.StageVideo)

			next, ok = stage.Next(model.StageVideo)
			So(ok, ShouldBeTrue)
			So(next, ShouldEqual, model.StageHandwriting)

			next, ok = stage.Next(model.StageHandwriting)
			So(ok, ShouldBeTrue)
			So(next, ShouldEqual, model.StageComplete)
		})

		Convey("And the terminal stage should have no successor", func() {
			_, ok := stage.Next(model.StageComplete)
			So(ok, ShouldBeFalse)
			So(stage.IsTerminal(model.StageComplete), ShouldBeTrue)
		})

		Convey("And an unknown stage should have no successor", func() {
			_, ok := stage.Next(model.Stage("bogus"))
			So(ok, ShouldBeFalse)
		})
	})
}

func TestCanAdvance(t *testing.T) {
	Convey("Given stage transition checks", t, func() {
		Convey("Then only immediate successors should be legal", func() {
			So(stage.CanAdvance(model.StageQuestionnaire, model.StageVideo), ShouldBeTrue)
			So(stage.CanAdvance(model.StageVideo, model.StageHandwriting), ShouldBeTrue)
			So(stage.CanAdvance(model.StageHandwriting, model.StageComplete), ShouldBeTrue)
		})

		Convey("And skipping or regressing should be illegal", func() {
			So(stage.CanAdvance(model.StageQuestionnaire, model.StageHandwriting), ShouldBeFalse)
			So(stage.CanAdvance(model.StageQuestionnaire, model.StageComplete), ShouldBeFalse)
			So(stage.CanAdvance(model.StageVideo, model.StageQuestionnaire), ShouldBeFalse)
			So(stage.CanAdvance(model.StageComplete, model.StageQuestionnaire), ShouldBeFalse)
		})
	})
}

func TestRequire(t *testing.T) {
	Convey("Given a record at the video stage", t, func() {
		Convey("When submitting for the video stage", func() {
			err := stage.Require(model.StageVideo, model.StageVideo)

			Convey("Then resubmission should be permitted", func() {
				So(err, ShouldBeNil)
			})
		})

		Convey("When submitting for any other stage", func() {
			err := stage.Require(model.StageVideo, model.StageHandwriting)

			Convey("Then it should fail with a stage violation", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, stage.ErrStageViolation), ShouldBeTrue)
			})
		})
	})
}

func TestAdvance(t *testing.T) {
	Convey("Given a fresh record", t, func() {
		rec := model.NewAssessmentRecord("subject-1", time.Now())

		Convey("When advancing through every stage", func() {
			So(stage.Advance(&rec), ShouldBeNil)
			So(rec.Stage, ShouldEqual, model.StageVideo)
			So(stage.Advance(&rec), ShouldBeNil)
			So(rec.Stage, ShouldEqual, model.StageHandwriting)
			So(stage.Advance(&rec), ShouldBeNil)
			So(rec.Stage, ShouldEqual, model.StageComplete)

			Convey("Then advancing past the terminal stage should fail", func() {
				err := stage.Advance(&rec)
				So(errors.Is(err, stage.ErrStageViolation), ShouldBeTrue)
				So(rec.Stage, ShouldEqual, model.StageComplete)
			})
		})
	})
}
