package magen

import (
	"reflect"
	"testing"
)

func fulfilledAppState() State {
	return State{
		Platform:                PlatformIOS,
		ProjectName:             "MyApp",
		PackageName:             "com.example.myapp",
		Organization:            "Example Inc",
		ConnectedAppClientID:    "client",
		ConnectedAppCallbackURI: "myapp://done",
		LoginHost:               "login.salesforce.com",
	}
}

func TestAppGenerationProperties_Names(t *testing.T) {
	want := []string{
		"platform", "projectName", "packageName", "organization",
		"connectedAppClientId", "connectedAppCallbackUri", "loginHost",
	}
	got := AppGenerationProperties().Names()
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}

func TestPropertyMetadataCollection_Fulfilled(t *testing.T) {
	props := AppGenerationProperties()

	if !props.Fulfilled(fulfilledAppState()) {
		t.Error("Fulfilled() = false with every field set")
	}

	partial := fulfilledAppState()
	partial.LoginHost = ""
	if props.Fulfilled(partial) {
		t.Error("Fulfilled() = true with empty loginHost")
	}

	partial.LoginHost = "/"
	if !props.Fulfilled(partial) {
		t.Error("Fulfilled() = false with loginHost '/'")
	}
}

func TestPropertyMetadataCollection_FulfilledOrderIndependent(t *testing.T) {
	a := NewPropertyMetadataCollection(
		PropertyMetadata{Name: "platform"},
		PropertyMetadata{Name: "projectName"},
	)
	b := NewPropertyMetadataCollection(
		PropertyMetadata{Name: "projectName"},
		PropertyMetadata{Name: "platform"},
	)

	states := []State{
		{},
		{Platform: PlatformAndroid},
		{ProjectName: "X"},
		{Platform: PlatformAndroid, ProjectName: "X"},
	}
	for _, s := range states {
		if a.Fulfilled(s) != b.Fulfilled(s) {
			t.Errorf("insertion order changed Fulfilled() for state %+v", s)
		}
	}
}

func TestPropertyMetadataCollection_FulfilledIgnoresOtherFields(t *testing.T) {
	props := NewPropertyMetadataCollection(PropertyMetadata{Name: "platform"})
	s := State{Platform: PlatformIOS} // everything else unset
	if !props.Fulfilled(s) {
		t.Error("unset fields outside the collection affected the result")
	}
}

func TestPropertyMetadataCollection_EmptyIsFulfilled(t *testing.T) {
	if !NewPropertyMetadataCollection().Fulfilled(State{}) {
		t.Error("empty collection should be vacuously fulfilled")
	}
	var nilCollection *PropertyMetadataCollection
	if !nilCollection.Fulfilled(State{}) {
		t.Error("nil collection should be vacuously fulfilled")
	}
}

func TestPropertyMetadataCollection_Unfulfilled(t *testing.T) {
	props := AppGenerationProperties()
	s := fulfilledAppState()
	s.PackageName = ""
	s.LoginHost = ""

	missing := props.Unfulfilled(s)
	var names []string
	for _, p := range missing {
		names = append(names, p.Name)
	}
	want := []string{"packageName", "loginHost"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Unfulfilled() names = %v, want %v", names, want)
	}
}

func TestPropertyMetadataCollection_AddReplacesInPlace(t *testing.T) {
	c := NewPropertyMetadataCollection(
		PropertyMetadata{Name: "platform", FriendlyName: "Old"},
		PropertyMetadata{Name: "projectName"},
	)
	c.Add(PropertyMetadata{Name: "platform", FriendlyName: "New"})

	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}
	if got := c.Names(); !reflect.DeepEqual(got, []string{"platform", "projectName"}) {
		t.Errorf("Names() = %v, replacement changed order", got)
	}
	p, _ := c.Get("platform")
	if p.FriendlyName != "New" {
		t.Errorf("FriendlyName = %q, want %q", p.FriendlyName, "New")
	}
}
