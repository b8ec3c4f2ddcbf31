package testexams

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Defaults for Generate.
const (
	DefaultExams      = 5
	DefaultStudents   = 40
	DefaultAttendance = 0.7
	DefaultRetryRate  = 0.1
)

var (
	firstNames = []string{
		"أحمد", "محمد", "علي", "حسن", "حسين", "عمر", "يوسف", "زيد", "كريم", "مصطفى",
		"سارة", "مريم", "زينب", "فاطمة", "نور", "هدى", "ليلى", "رقية", "آية", "دعاء",
	}
	lastNames = []string{
		"العبيدي", "الجبوري", "الساعدي", "الربيعي", "الموسوي", "الحسيني", "التميمي", "الخفاجي",
		"الزبيدي", "الشمري", "الدليمي", "البياتي",
	}
	maxScores = []float64{10, 20, 25, 30, 40, 50}
)

// Config controls synthetic exam generation.
type Config struct {
	Exams    int
	Students int
	// Attendance is the probability that a student sits a given exam.
	Attendance float64
	// RetryRate is the probability that an attending student submits twice.
	RetryRate float64
	// SingleNames adds this many one-word names per exam to exercise the
	// name-part filter.
	SingleNames int
	Start       time.Time
	Seed        uint64
}

func (c Config) withDefaults() Config {
	if c.Exams <= 0 {
		c.Exams = DefaultExams
	}
	if c.Students <= 0 {
		c.Students = DefaultStudents
	}
	if c.Attendance <= 0 || c.Attendance > 1 {
		c.Attendance = DefaultAttendance
	}
	if c.RetryRate < 0 || c.RetryRate > 1 {
		c.RetryRate = DefaultRetryRate
	}
	if c.Start.IsZero() {
		c.Start = time.Date(2024, time.January, 7, 9, 0, 0, 0, time.UTC)
	}
	return c
}

// Generate produces deterministic exams for the given configuration.
func Generate(cfg Config) []Exam {
	cfg = cfg.withDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	students := Students(rng, cfg.Students)
	// ability skews each student's scores so rankings are stable across exams
	ability := make([]float64, len(students))
	for i := range ability {
		ability[i] = 0.4 + rng.Float64()*0.6
	}

	exams := make([]Exam, cfg.Exams)
	for e := range exams {
		opens := cfg.Start.AddDate(0, 0, 7*e)
		ex := Exam{
			Name:     fmt.Sprintf("Exam %02d.xlsx", e+1),
			MaxScore: maxScores[rng.IntN(len(maxScores))],
			Style:    FormatStyle(e % 4),
		}
		for s, name := range students {
			if rng.Float64() > cfg.Attendance {
				continue
			}
			attempts := 1
			if rng.Float64() < cfg.RetryRate {
				attempts = 2
			}
			for a := 0; a < attempts; a++ {
				ex.Entries = append(ex.Entries, Entry{
					Name:      name,
					Submitted: opens.Add(time.Duration(rng.IntN(3*3600)) * time.Second),
					Score:     score(rng, ability[s], ex.MaxScore),
				})
			}
		}
		for k := 0; k < cfg.SingleNames; k++ {
			ex.Entries = append(ex.Entries, Entry{
				Name:      firstNames[rng.IntN(len(firstNames))],
				Submitted: opens.Add(time.Duration(rng.IntN(3*3600)) * time.Second),
				Score:     score(rng, 1, ex.MaxScore),
			})
		}
		rng.Shuffle(len(ex.Entries), func(i, j int) {
			ex.Entries[i], ex.Entries[j] = ex.Entries[j], ex.Entries[i]
		})
		exams[e] = ex
	}
	return exams
}

// Students returns n distinct two-part names.
func Students(rng *rand.Rand, n int) []string {
	seen := make(map[string]struct{}, n)
	out := make([]string, 0, n)
	for len(out) < n {
		name := firstNames[rng.IntN(len(firstNames))] + " " + lastNames[rng.IntN(len(lastNames))]
		if _, ok := seen[name]; ok {
			name = fmt.Sprintf("%s %d", name, len(out))
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func score(rng *rand.Rand, ability, limit float64) float64 {
	v := ability*limit + (rng.Float64()-0.5)*0.3*limit
	if v < 0 {
		v = 0
	}
	if v > limit {
		v = limit
	}
	return float64(int(v + 0.5))
}
