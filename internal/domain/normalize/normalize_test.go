package normalize_test

import (
	"testing"
	"time"

	"github.com/okian/examboard/internal/domain/model"
	"github.com/okian/examboard/internal/domain/normalize"
	. "github.com/smartystreets/goconvey/convey"
)

func at(hh, mm int) time.Time {
	return time.Date(2024, time.March, 3, hh, mm, 0, 0, time.UTC)
}

func header() []model.Cell {
	return []model.Cell{
		{Value: model.DefaultTimestampLabel},
		{Value: model.DefaultNameLabel},
		{Value: model.DefaultScoreLabel},
	}
}

func row(ts any, name string, score float64, format string) []model.Cell {
	return []model.Cell{
		{Value: ts},
		{Value: name},
		{Value: score, Format: format},
	}
}

func sheet(name string, rows ...[]model.Cell) model.Sheet {
	return model.Sheet{Name: name, Rows: append([][]model.Cell{header()}, rows...)}
}

func TestNormalize(t *testing.T) {
	Convey("Given a normalizer with default settings", t, func() {
		n := normalize.New(model.DefaultSettings())

		Convey("When names have too few parts", func() {
			rep := n.Normalize(sheet("quiz.xlsx",
				row(at(9, 0), "Ali", 10, `0" / 20"`),
				row(at(9, 1), "Ali Hassan", 10, `0" / 20"`),
				row(at(9, 2), "   ", 10, `0" / 20"`),
			))

			Convey("Then only two-part names survive", func() {
				So(rep.Records, ShouldHaveLength, 1)
				So(rep.Records[0].Participant, ShouldEqual, "Ali Hassan")
				So(rep.Read, ShouldEqual, 2)
				So(rep.Filtered, ShouldEqual, 1)
			})
		})

		Convey("When scores carry their maximum in the number format", func() {
			rep := n.Normalize(sheet("Math Exam.XLSX",
				row(at(10, 0), "Sara Ahmed", 18, `0" / 20"`),
				row(at(9, 50), "Omar Said", 20, "General"),
			))

			Convey("Then percentages use the extracted maximum or 100", func() {
				So(rep.Exam, ShouldEqual, "Math Exam")
				So(rep.Records, ShouldHaveLength, 2)
				So(rep.Records[0].Participant, ShouldEqual, "Omar Said")
				So(rep.Records[0].MaxScore, ShouldEqual, 100)
				So(rep.Records[0].Percentage, ShouldEqual, 20)
				So(rep.Records[1].MaxScore, ShouldEqual, 20)
				So(rep.Records[1].Percentage, ShouldEqual, 90)
			})

			Convey("And speed ranks follow submission time", func() {
				So(rep.Records[0].SpeedRank, ShouldEqual, 1)
				So(rep.Records[0].SpeedPercentile, ShouldEqual, 100)
				So(rep.Records[1].SpeedRank, ShouldEqual, 2)
				So(rep.Records[1].SpeedPercentile, ShouldEqual, 0)
			})
		})

		Convey("When the same name submits twice with equal percentages", func() {
			rep := n.Normalize(sheet("tie.xlsx",
				row(at(9, 5), "Lina Karim", 20, `0" / 20"`),
				row(at(9, 0), "Lina Karim", 20, `0" / 20"`),
			))

			Convey("Then the earlier submission is kept", func() {
				So(rep.Records, ShouldHaveLength, 1)
				So(rep.Records[0].Timestamp, ShouldEqual, at(9, 0))
				So(rep.Records[0].SpeedRank, ShouldEqual, 1)
				So(rep.Duplicates, ShouldEqual, 1)
			})
		})

		Convey("When a later attempt scores higher", func() {
			rep := n.Normalize(sheet("retry.xlsx",
				row(at(9, 0), "Lina Karim", 10, `0" / 20"`),
				row(at(9, 30), "Huda Nasser", 15, `0" / 20"`),
				row(at(10, 0), "Lina Karim", 19, `0" / 20"`),
			))

			Convey("Then the better attempt is ranked by its own time", func() {
				So(rep.Records, ShouldHaveLength, 2)
				So(rep.Records[0].Participant, ShouldEqual, "Huda Nasser")
				So(rep.Records[1].Participant, ShouldEqual, "Lina Karim")
				So(rep.Records[1].Percentage, ShouldEqual, 95)
				So(rep.Records[1].SpeedRank, ShouldEqual, 2)
			})
		})

		Convey("When some rows have no timestamp", func() {
			rep := n.Normalize(sheet("undated.xlsx",
				row(nil, "Zaid Ali", 5, ""),
				row(at(9, 10), "Mona Adel", 5, ""),
				row("", "Rami Fadi", 5, ""),
				row(at(9, 0), "Nour Sami", 5, ""),
			))

			Convey("Then undated rows sort last in source order", func() {
				names := make([]string, len(rep.Records))
				for i, r := range rep.Records {
					names[i] = r.Participant
				}
				So(names, ShouldResemble, []string{"Nour Sami", "Mona Adel", "Zaid Ali", "Rami Fadi"})
			})

			Convey("And ranks form the permutation 1..n", func() {
				for i, r := range rep.Records {
					So(r.SpeedRank, ShouldEqual, i+1)
				}
				So(rep.Records[0].SpeedPercentile, ShouldEqual, 100)
				So(rep.Records[3].SpeedPercentile, ShouldEqual, 0)
			})
		})

		Convey("When there is a single participant", func() {
			rep := n.Normalize(sheet("solo.xlsx", row(at(8, 0), "Solo Runner", 3, "")))
			So(rep.Records, ShouldHaveLength, 1)
			So(rep.Records[0].SpeedPercentile, ShouldEqual, 100)
		})

		Convey("When the score column is missing", func() {
			s := model.Sheet{Name: "broken.xlsx", Rows: [][]model.Cell{
				{{Value: model.DefaultNameLabel}},
				{{Value: "Ali Hassan"}},
			}}
			rep := n.Normalize(s)

			Convey("Then a warning is reported and no records produced", func() {
				So(rep.Records, ShouldBeEmpty)
				So(rep.Diagnostics, ShouldHaveLength, 1)
				So(rep.Diagnostics[0].Severity, ShouldEqual, model.SeverityWarning)
				So(rep.Diagnostics[0].Source, ShouldEqual, "broken.xlsx")
				So(rep.Diagnostics[0].Message, ShouldContainSubstring, "score")
			})
		})

		Convey("When the score is text", func() {
			rep := n.Normalize(sheet("text.xlsx",
				[]model.Cell{{Value: at(9, 0)}, {Value: "Ali Hassan"}, {Value: "18 / 20", Display: "18 / 20"}},
				[]model.Cell{{Value: at(9, 1)}, {Value: "Huda Nasser"}, {Value: "absent"}},
			))

			Convey("Then the leading number is used or zero", func() {
				So(rep.Records[0].RawScore, ShouldEqual, 18)
				So(rep.Records[0].MaxScore, ShouldEqual, 20)
				So(rep.Records[1].RawScore, ShouldEqual, 0)
				So(rep.Records[1].MaxScore, ShouldEqual, 100)
			})
		})
	})
}

func TestDedupeByNameIdempotent(t *testing.T) {
	Convey("Given deduplicated records", t, func() {
		recs := []model.Submission{
			{Participant: "A B", Percentage: 50, Timestamp: at(9, 0), Row: 1},
			{Participant: "C D", Percentage: 70, Timestamp: at(9, 1), Row: 2},
			{Participant: "A B", Percentage: 80, Timestamp: at(9, 2), Row: 3},
			{Participant: "C D", Percentage: 70, Row: 4},
		}
		once := normalize.DedupeByName(recs)

		Convey("When deduplicating again", func() {
			twice := normalize.DedupeByName(once)

			Convey("Then nothing changes", func() {
				So(once, ShouldHaveLength, 2)
				So(once[0].Percentage, ShouldEqual, 80)
				So(once[1].Row, ShouldEqual, 2)
				So(twice, ShouldResemble, once)
			})
		})
	})
}

func TestMatchColumn(t *testing.T) {
	Convey("Given headers and ranked candidates", t, func() {
		headers := []string{"طابع زمني", "الاسم", "الاسم الكامل", "النتيجة"}

		Convey("Then the first candidate found anywhere wins", func() {
			So(normalize.MatchColumn(headers, []string{"الاسم الكامل", "الاسم"}), ShouldEqual, 2)
			So(normalize.MatchColumn(headers, []string{"", "النتيجة"}), ShouldEqual, 3)
			So(normalize.MatchColumn(headers, []string{"Score"}), ShouldEqual, -1)
		})

		Convey("Then matching is case sensitive", func() {
			So(normalize.MatchColumn([]string{"Full Name"}, []string{"full name"}), ShouldEqual, -1)
		})
	})
}

func TestValues(t *testing.T) {
	Convey("Given raw cell values", t, func() {
		So(normalize.ExamLabel("dir/Week 1.xls"), ShouldEqual, "Week 1")
		So(normalize.ExamLabel("Week 2.xlsm"), ShouldEqual, "Week 2")
		So(normalize.ExamLabel("notes.csv"), ShouldEqual, "notes.csv")

		So(normalize.Timestamp(model.Cell{Value: "2024-03-03 09:00:00"}), ShouldEqual, at(9, 0))
		So(normalize.Timestamp(model.Cell{Value: 45354.375}), ShouldEqual, at(9, 0))
		So(normalize.Timestamp(model.Cell{Value: "soon"}).IsZero(), ShouldBeTrue)
	})
}
