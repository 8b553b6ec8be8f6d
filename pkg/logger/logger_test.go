package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Init", t, func() {
		Convey("defaults to the text handler", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("accepts the json format", func() {
			So(Init(WithFormat("JSON")), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
		})

		Convey("rejects unknown formats", func() {
			So(Init(WithFormat("xml")), ShouldNotBeNil)
		})
	})
}

func TestLoggerJSONOutput(t *testing.T) {
	Convey("Given a json logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithOutput(&buf)), ShouldBeNil)

		Convey("fields and the logger name are emitted", func() {
			Named("forms").Info(context.Background(), "stored",
				String("kind", "contact"), Int64("id", 42), Error(errors.New("boom")))

			var line map[string]any
			So(json.Unmarshal(buf.Bytes(), &line), ShouldBeNil)
			So(line["msg"], ShouldEqual, "stored")
			So(line["logger"], ShouldEqual, "forms")
			So(line["kind"], ShouldEqual, "contact")
			So(line["id"], ShouldEqual, 42.0)
			So(line["error"], ShouldEqual, "boom")
			So(line["source"], ShouldContainSubstring, "logger_test.go")
		})

		Convey("debug lines are dropped until the level is lowered", func() {
			Get().Debug(context.Background(), "hidden")
			So(buf.Len(), ShouldEqual, 0)

			So(SetLevelString("debug"), ShouldBeNil)
			Get().Debug(context.Background(), "visible")
			So(strings.Contains(buf.String(), "visible"), ShouldBeTrue)
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("SetLevelString", t, func() {
		So(Init(), ShouldBeNil)
		for _, lvl := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("verbose"), ShouldNotBeNil)
	})
}
