package scoring_test

import (
	"strconv"
	"testing"

	scoring "github.com/okian/handball/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

type scoreCase struct {
	in   float64
	want int
}

func assertScores(score func(float64) int, cases []scoreCase) {
	for _, c := range cases {
		So(score(c.in), ShouldEqual, c.want)
	}
}

func TestSprint30mScore(t *testing.T) {
	Convey("Given the 30 m sprint table", t, func() {
		Convey("When the time is at or under 3.70 s", func() {
			Convey("Then the maximum is awarded", func() {
				assertScores(scoring.Sprint30mScore, []scoreCase{{3.20, 80}, {3.70, 80}})
			})
		})

		Convey("When the time just misses a 0.02 s mark", func() {
			Convey("Then the started step already costs a point", func() {
				assertScores(scoring.Sprint30mScore, []scoreCase{
					{3.71, 79}, {3.72, 79}, {3.73, 78}, {3.74, 78}, {4.00, 65},
				})
			})
		})

		Convey("When the time sits on a segment boundary", func() {
			Convey("Then the boundary belongs to the faster segment", func() {
				assertScores(scoring.Sprint30mScore, []scoreCase{
					{4.59, 35}, {4.60, 35}, {4.61, 34}, {5.20, 20}, {5.21, 19}, {5.50, 14}, {5.51, 13}, {5.90, 10},
				})
			})
		})

		Convey("When the time is slower than 5.90 s", func() {
			Convey("Then no points are awarded", func() {
				assertScores(scoring.Sprint30mScore, []scoreCase{{5.91, 0}, {6.00, 0}, {12.0, 0}})
			})
		})

		Convey("When every 0.02 s mark of the first segment is hit exactly", func() {
			Convey("Then binary representation noise does not shift the bucket", func() {
				for k := 0; k <= 45; k++ {
					computed := 3.70 + float64(k)*0.02
					parsed, err := strconv.ParseFloat(strconv.FormatFloat(computed, 'f', 2, 64), 64)
					So(err, ShouldBeNil)
					So(scoring.Sprint30mScore(computed), ShouldEqual, 80-k)
					So(scoring.Sprint30mScore(parsed), ShouldEqual, 80-k)
				}
			})
		})
	})
}

func TestMedicineBallScore(t *testing.T) {
	Convey("Given the medicine-ball sum table", t, func() {
		Convey("When the sum reaches 30 m", func() {
			Convey("Then the maximum is awarded", func() {
				assertScores(scoring.MedicineBallScore, []scoreCase{{30.00, 80}, {34.5, 80}})
			})
		})

		Convey("When the sum falls short of a 0.20 m mark", func() {
			Convey("Then the score is the one of the last mark reached", func() {
				assertScores(scoring.MedicineBallScore, []scoreCase{
					{29.99, 79}, {29.80, 79}, {29.79, 78}, {25.00, 55}, {21.00, 35},
				})
			})
		})

		Convey("When the sum is in the lower segments", func() {
			Convey("Then each segment floor holds", func() {
				assertScores(scoring.MedicineBallScore, []scoreCase{
					{20.99, 34}, {18.00, 20}, {17.99, 19}, {16.60, 14}, {16.59, 13}, {15.00, 10}, {14.50, 10},
				})
			})
		})

		Convey("When every 0.20 m mark of the first segment is hit exactly", func() {
			for k := 0; k <= 45; k++ {
				So(scoring.MedicineBallScore(30.00-float64(k)*0.20), ShouldEqual, 80-k)
			}
		})

		Convey("When the sum is under 14.50 m", func() {
			Convey("Then no points are awarded", func() {
				assertScores(scoring.MedicineBallScore, []scoreCase{{14.49, 0}, {14.00, 0}, {0, 0}})
			})
		})
	})
}

func TestFiveJumpScore(t *testing.T) {
	Convey("Given the five-jump table", t, func() {
		Convey("When the distance reaches 13.50 m", func() {
			So(scoring.FiveJumpScore(13.50), ShouldEqual, 80)
			So(scoring.FiveJumpScore(15.00), ShouldEqual, 80)
		})

		Convey("When the distance is inside the segments", func() {
			assertScores(scoring.FiveJumpScore, []scoreCase{
				{13.49, 79}, {13.00, 70}, {12.00, 50}, {11.50, 40}, {11.49, 39},
				{11.00, 35}, {10.99, 34}, {10.00, 25}, {9.50, 20}, {9.49, 19}, {8.00, 12}, {7.80, 11},
			})
		})

		Convey("When the distance is under 7.80 m", func() {
			assertScores(scoring.FiveJumpScore, []scoreCase{{7.79, 0}, {3.0, 0}})
		})
	})
}

func TestTablesAreMonotonic(t *testing.T) {
	Convey("Given every score table", t, func() {
		for _, test := range scoring.Tests() {
			table, ok := scoring.Lookup(test)
			So(ok, ShouldBeTrue)

			Convey("Then "+string(test)+" never improves as the measurement gets worse and stays in range", func() {
				prev := scoring.MaxScore + 1
				for i := 0; i <= 2000; i++ {
					var x float64
					if table.Direction == scoring.LowerIsBetter {
						x = 3.0 + float64(i)*0.0025
					} else {
						x = 35.0 - float64(i)*0.0175
					}
					got := table.Score(x)
					So(got, ShouldBeBetweenOrEqual, scoring.MinScore, scoring.MaxScore)
					So(got, ShouldBeLessThanOrEqualTo, prev)
					prev = got
				}
			})
		}
	})

	Convey("Given an unknown test name", t, func() {
		_, ok := scoring.Lookup("handThrow")
		So(ok, ShouldBeFalse)
	})
}
