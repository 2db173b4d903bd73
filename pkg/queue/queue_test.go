package queue

import (
	"testing"
)

func TestJobMessageIDDeterministic(t *testing.T) {
	a := JobMessageID(TopicAssetPlatformRequested, "texture", "0a1b2c3d", "osx_x64", "4")
	b := JobMessageID(TopicAssetPlatformRequested, "texture", "0a1b2c3d", "osx_x64", "4")

	if a != b {
		t.Fatalf("expected identical IDs, got %s and %s", a, b)
	}

	if len(a) != 16 {
		t.Fatalf("expected 16 hex chars, got %q", a)
	}
}

func TestJobMessageIDDistinguishesParts(t *testing.T) {
	base := JobMessageID(TopicAssetPlatformRequested, "texture", "0a1b2c3d", "osx_x64", "4")

	variants := []string{
		JobMessageID(TopicAssetPlatformRequested, "texture", "0a1b2c3d", "osx_x64", "5"),
		JobMessageID(TopicAssetPlatformRequested, "texture", "0a1b2c3d", "win_x64", "4"),
		JobMessageID(TopicAssetSourceRequested, "texture", "0a1b2c3d", "osx_x64", "4"),
		// 边界不同但拼接相同的部件不应碰撞
		JobMessageID(TopicAssetPlatformRequested, "texture", "0a1b2c3dosx_x64", "", "4"),
	}

	for i, v := range variants {
		if v == base {
			t.Fatalf("variant %d collided with base ID %s", i, base)
		}
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	payload := PlatformJobPayload{
		AssetType:  "texture",
		ID:         "0a1b2c3d",
		Platform:   "osx_x64",
		MinVersion: 4,
	}

	msg, err := NewWatermillMessage(TopicAssetPlatformRequested, payload, WithProducer("assetsrv"))
	if err != nil {
		t.Fatalf("NewWatermillMessage: %v", err)
	}

	env, err := ParsePlatformJob(msg)
	if err != nil {
		t.Fatalf("ParsePlatformJob: %v", err)
	}

	if env.Header.Topic != TopicAssetPlatformRequested {
		t.Errorf("unexpected topic: %s", env.Header.Topic)
	}

	if env.Header.Producer != "assetsrv" {
		t.Errorf("unexpected producer: %s", env.Header.Producer)
	}

	if env.Payload != payload {
		t.Errorf("payload mismatch: %+v", env.Payload)
	}
}

func TestAssetChangedTopics(t *testing.T) {
	if got := TopicAssetChanged("texture"); got != "blink.asset.changed.texture" {
		t.Errorf("unexpected type topic: %s", got)
	}

	if got := TopicAssetChangedOne("texture", "0a1b2c3d"); got != "blink.asset.changed.texture.0a1b2c3d" {
		t.Errorf("unexpected asset topic: %s", got)
	}
}
