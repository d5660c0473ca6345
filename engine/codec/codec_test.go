package codec

import (
	"testing"
)

func TestMessagePackPackerRoundTrip(t *testing.T) {
	msg := map[string]interface{}{
		"class": "Goblin",
		"props": map[string]interface{}{
			"HP":   int64(200),
			"Name": "Grunt",
		},
	}
	buf, err := MessagePackPacker{}.PackMsg(msg, nil)
	if err != nil {
		t.Fatal(err)
	}
	var out map[string]interface{}
	if err := (MessagePackPacker{}).UnpackMsg(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out["class"] != "Goblin" {
		t.Errorf("class lost: %v", out)
	}
	if _, ok := out["props"].(map[interface{}]interface{}); ok {
		t.Errorf("should not unpack with type map[interface{}]interface{}")
	}
}

func TestJSONPackerTrimsNewline(t *testing.T) {
	buf, err := JSONPacker{}.PackMsg(map[string]int{"a": 1}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(buf) == 0 || buf[len(buf)-1] == '\n' {
		t.Errorf("trailing newline should be trimmed: %q", buf)
	}
	var out map[string]int
	if err := (JSONPacker{}).UnpackMsg(buf, &out); err != nil {
		t.Fatal(err)
	}
	if out["a"] != 1 {
		t.Errorf("round trip lost data: %v", out)
	}
}
