package domain

import "testing"

func TestSubmit_Transitions(t *testing.T) {
	tests := []struct {
		name     string
		from     CardState
		disaster string
		sub      bool
		want     TransitionKind
	}{
		{"new flood", CardNew, "flood", false, TransitionOK},
		{"new earthquake sub", CardNew, "earthquake", true, TransitionOK},
		{"received flood", CardReceived, "flood", false, TransitionConflict},
		{"received flood flagged sub", CardReceived, "flood", true, TransitionConflict},
		{"received earthquake not sub", CardReceived, "earthquake", false, TransitionConflict},
		{"received earthquake sub", CardReceived, "earthquake", true, TransitionNewCard},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got := Submit(tc.from, tc.disaster, tc.sub)
			if got.Kind != tc.want {
				t.Fatalf("Submit(%v,%q,%v)=%v, want %v", tc.from, tc.disaster, tc.sub, got.Kind, tc.want)
			}
			if got.Next != CardReceived {
				t.Fatalf("Next=%v, want RECEIVED", got.Next)
			}
		})
	}
}

func TestStateOf_AndString(t *testing.T) {
	if StateOf(false) != CardNew || StateOf(true) != CardReceived {
		t.Fatalf("StateOf mapping wrong")
	}
	if CardNew.String() != "NEW" || CardReceived.String() != "RECEIVED" || CardState(9).String() != "UNKNOWN" {
		t.Fatalf("unexpected state strings")
	}
	if TransitionNewCard.String() != "new_card" || TransitionKind(0).String() != "unknown" {
		t.Fatalf("unexpected transition strings")
	}
	if (Card{Received: true}).State() != CardReceived {
		t.Fatalf("Card.State should follow Received")
	}
}

func TestCanAttachImage(t *testing.T) {
	img := "https://images.example/x.jpg"
	empty := ""
	if CanAttachImage(CardNew, nil) {
		t.Fatalf("NEW card must not accept an image")
	}
	if !CanAttachImage(CardReceived, nil) || !CanAttachImage(CardReceived, &empty) {
		t.Fatalf("received card without image must accept one")
	}
	if CanAttachImage(CardReceived, &img) {
		t.Fatalf("existing image must not be overwritten")
	}
}

func TestValidRemState_AndDescribe(t *testing.T) {
	for code := 1; code <= 4; code++ {
		if !ValidRemState(code) {
			t.Fatalf("state %d should be valid", code)
		}
	}
	if ValidRemState(0) || ValidRemState(5) {
		t.Fatalf("out-of-range states accepted")
	}
	s := 3
	if d := (AreaWithState{State: &s}).Describe(); d == nil || d.Severity != "Moderate" {
		t.Fatalf("Describe(3)=%+v", d)
	}
	if (AreaWithState{}).Describe() != nil {
		t.Fatalf("Describe without state must be nil")
	}
}
