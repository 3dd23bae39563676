package noms

import (
	"testing"

	"demsausage-api/internal/models"
)

func TestDescribe(t *testing.T) {
	cases := []struct {
		name string
		in   models.Noms
		want string
	}{
		{"nil", nil, ""},
		{"empty", models.Noms{}, ""},
		{"bbq with free text", models.Noms{"bbq": true, "cake": false, "free_text": "gluten-free"}, "sausage sizzle, and additional options: gluten-free"},
		{"declaration order", models.Noms{"bacon_and_eggs": true, "halal": true, "bbq": true, "coffee": true}, "sausage sizzle, coffee, halal options, bacon and egg burgers"},
		{"everything", models.Noms{"bbq": true, "cake": true, "coffee": true, "vego": true, "halal": true, "bacon_and_eggs": true},
			"sausage sizzle, cake stall, coffee, vegetarian options, halal options, bacon and egg burgers"},
		{"only exact true counts", models.Noms{"bbq": "true", "cake": 1, "vego": true}, "vegetarian options"},
		{"empty free text skipped", models.Noms{"cake": true, "free_text": ""}, "cake stall"},
		{"non-string free text skipped", models.Noms{"cake": true, "free_text": nil}, "cake stall"},
		{"free text only", models.Noms{"free_text": "scones"}, "and additional options: scones"},
		{"unknown keys ignored", models.Noms{"run_out": true, "nothing": true}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Describe(c.in); got != c.want {
				t.Fatalf("got %q, want %q", got, c.want)
			}
			// 输出与 map 遍历顺序无关
			for i := 0; i < 20; i++ {
				if again := Describe(c.in); again != c.want {
					t.Fatalf("unstable output %q", again)
				}
			}
		})
	}
}
