package sync

import (
	"bytes"
	"strings"
	"testing"
)

func TestCountTags(t *testing.T) {
	reader, err := NewRowReader(strings.NewReader("email,can2_user_tags\n" +
		"a@example.com,\"A,B\"\n" +
		"b@example.com,A\n" +
		"c@example.com,\"B,C\"\n"))
	if err != nil {
		t.Fatal(err)
	}
	counts, err := CountTags(reader, "can2_user_tags", "")
	if err != nil {
		t.Fatal(err)
	}
	expected := []TagCount{{"A", 2}, {"B", 2}, {"C", 1}}
	if len(counts) != len(expected) {
		t.Fatalf("Expected %d tags but have %d: %v", len(expected), len(counts), counts)
	}
	for i := range expected {
		if counts[i] != expected[i] {
			t.Errorf("Expected %v at %d but have %v", expected[i], i, counts[i])
		}
	}
}

func TestCountTags_PipesAndRepeats(t *testing.T) {
	counter := NewTagCounter(DefaultTagDelimiters)
	counter.Add("Phone_Bank | ?Direct Action, Phone_Bank")
	counter.Add("#Trump, ?Direct Action")
	counter.Add("")

	var buf bytes.Buffer
	if err := WriteTagCounts(&buf, counter.Sorted()); err != nil {
		t.Fatal(err)
	}
	expected := "2\t?Direct Action\n" +
		"1\t#Trump\n" +
		"1\tPhone_Bank\n" +
		"3\tTOTAL\n"
	if buf.String() != expected {
		t.Errorf("Expected:\n%s\nbut have:\n%s", expected, buf.String())
	}
}

func TestCountTags_Empty(t *testing.T) {
	reader, err := NewRowReader(strings.NewReader("email,can2_user_tags\n"))
	if err != nil {
		t.Fatal(err)
	}
	counts, err := CountTags(reader, "can2_user_tags", "")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := WriteTagCounts(&buf, counts); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "0\tTOTAL\n" {
		t.Errorf("Expected only the total but have %q", buf.String())
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		value      string
		delimiters string
		expected   []string
	}{
		{"SURJ_Action_Hour, SURU2021, ShowUpRiseUp 2020", "", []string{"SURJ_Action_Hour", "SURU2021", "ShowUpRiseUp 2020"}},
		{"A|B|A", "", []string{"A", "B"}},
		{" , ,", "", nil},
		{"A,B;C", ";", []string{"A,B", "C"}},
	}
	for _, tt := range tests {
		have := SplitTags(tt.value, tt.delimiters)
		if strings.Join(have, "/") != strings.Join(tt.expected, "/") {
			t.Errorf("Expected %q to split into %q but have %q", tt.value, tt.expected, have)
		}
	}
}

func TestMergeTags(t *testing.T) {
	merged, added := MergeTags([]string{"Volunteer", "Donor"}, []string{"donor", "Phone_Bank"})
	if strings.Join(merged, ",") != "Volunteer,Donor,Phone_Bank" {
		t.Errorf("Expected existing tags to be kept but have %v", merged)
	}
	if strings.Join(added, ",") != "Phone_Bank" {
		t.Errorf("Expected only Phone_Bank to be added but have %v", added)
	}
}

func TestTagMapping(t *testing.T) {
	reader, err := NewRowReader(strings.NewReader("old,new\n" +
		"Phone_Bank,\"Phone Banker, Volunteer\"\n" +
		"#Trump,\n" +
		"SURU2021,ShowUpRiseUp\n"))
	if err != nil {
		t.Fatal(err)
	}
	mapping, err := ReadTagMapping(reader)
	if err != nil {
		t.Fatal(err)
	}

	have := mapping.Apply([]string{"Phone_Bank", "#Trump", "Unmapped", "SURU2021"})
	expected := []string{"Phone Banker", "Volunteer", "ShowUpRiseUp"}
	if strings.Join(have, "/") != strings.Join(expected, "/") {
		t.Errorf("Expected %q but have %q", expected, have)
	}

	var none TagMapping
	if have := none.Apply([]string{"A"}); len(have) != 1 || have[0] != "A" {
		t.Errorf("Expected a nil mapping to pass tags through but have %q", have)
	}
}

func TestTagMapping_MissingColumn(t *testing.T) {
	reader, err := NewRowReader(strings.NewReader("old,replacement\nA,B\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err = ReadTagMapping(reader); err == nil || !strings.Contains(err.Error(), "'new'") {
		t.Errorf("Expected an error naming the new column but have %v", err)
	}
}
