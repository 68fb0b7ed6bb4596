package catalog

import (
	"fmt"
	"strings"
)

// SubjectSeed declares one subject of the static catalog.
type SubjectSeed struct {
	Name   string   `yaml:"name"`
	Topics []string `yaml:"topics"`
}

// Seed is the ordered static catalog loaded at startup.
type Seed []SubjectSeed

// DefaultSeed returns the catalog the bot ships with.
func DefaultSeed() Seed {
	return Seed{
		{Name: "مبادئ تراسُل البيانات والشبكات", Topics: []string{"عام"}},
		{Name: "مقدمة الى قواعد البيانات", Topics: []string{"عام"}},
		{Name: "الرياضيات", Topics: []string{"الهياكل المقاطعة", "الإحصاء والاحتمالات"}},
		{Name: "البرمجه الموجهه بالكائنات (نظري)", Topics: []string{"عام"}},
		{Name: "البرمجه الموجهه بالكائنات (عملي)", Topics: []string{"عام"}},
		{Name: "تنظيم الحاسوب", Topics: []string{"عام"}},
	}
}

// Validate rejects empty or duplicated names and subjects without topics.
func (s Seed) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("catalog: seed has no subjects")
	}
	seen := make(map[string]struct{}, len(s))
	for i, sub := range s {
		name := strings.TrimSpace(sub.Name)
		if name == "" {
			return fmt.Errorf("catalog: subject #%d has empty name", i+1)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("catalog: duplicate subject %q", name)
		}
		seen[name] = struct{}{}
		if len(sub.Topics) == 0 {
			return fmt.Errorf("catalog: subject %q has no topics", name)
		}
		topics := make(map[string]struct{}, len(sub.Topics))
		for _, t := range sub.Topics {
			t = strings.TrimSpace(t)
			if t == "" {
				return fmt.Errorf("catalog: subject %q has an empty topic name", name)
			}
			if _, dup := topics[t]; dup {
				return fmt.Errorf("catalog: subject %q has duplicate topic %q", name, t)
			}
			topics[t] = struct{}{}
		}
	}
	return nil
}
