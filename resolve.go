package logfactory

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// registryState is an immutable snapshot of the registry. Writers replace it wholesale.
type registryState struct {
	types    map[string]*TransportType
	defaults map[string]Options
	// names is the sorted list of keys in types.
	names []string
}

// typeSet is a name-indexed set of transport types with a stable iteration order.
type typeSet struct {
	types map[string]*TransportType
	names []string
}

// resolver looks name up in one tier. It must not modify the snapshot.
type resolver func(name string, registered, builtins typeSet) *TransportType

// resolutionOrder is the order in which lookup tiers are tried; the first hit wins.
var resolutionOrder = []resolver{
	exactRegistered,
	titleRegistered,
	foldRegistered,
	titleBuiltin,
	foldBuiltin,
}

func resolve(name string, registered, builtins typeSet) *TransportType {
	if name == emptyString {
		return nil
	}
	for _, r := range resolutionOrder {
		if t := r(name, registered, builtins); t != nil {
			return t
		}
	}
	return nil
}

func exactRegistered(name string, registered, _ typeSet) *TransportType {
	return registered.types[name]
}

func titleRegistered(name string, registered, _ typeSet) *TransportType {
	return registered.types[titleCase(name)]
}

func foldRegistered(name string, registered, _ typeSet) *TransportType {
	return fold(name, registered)
}

func titleBuiltin(name string, _, builtins typeSet) *TransportType {
	return builtins.types[titleCase(name)]
}

func foldBuiltin(name string, _, builtins typeSet) *TransportType {
	return fold(name, builtins)
}

func fold(name string, set typeSet) *TransportType {
	for _, n := range set.names {
		if strings.EqualFold(n, name) {
			return set.types[n]
		}
	}
	return nil
}

// titleCase upper-cases the first letter of every word and leaves the rest as
// written, so "console" becomes "Console" and "fileRotate" becomes "FileRotate".
func titleCase(name string) string {
	// A Caser holds state and is not safe for concurrent use.
	return cases.Title(language.Und, cases.NoLower).String(name)
}
