package crm

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
)

// ErrPropertyNotFound is returned when a cluster property has no value
var ErrPropertyNotFound = errors.New("cluster property not found")

const bootstrapOptions = "cib-bootstrap-options"

type cibDocument struct {
	Configuration struct {
		CRMConfig struct {
			PropertySets []propertySet `xml:"cluster_property_set"`
		} `xml:"crm_config"`
	} `xml:"configuration"`
}

type propertySet struct {
	ID      string   `xml:"id,attr"`
	NVPairs []nvpair `xml:"nvpair"`
}

type nvpair struct {
	ID    string `xml:"id,attr"`
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

// propertyFromCIB looks a cluster property up in a configuration dump
func propertyFromCIB(dump []byte, name string) (string, error) {
	var doc cibDocument
	if err := xml.Unmarshal(dump, &doc); err != nil {
		return "", fmt.Errorf("failed to parse cluster configuration: %w", err)
	}
	for _, set := range doc.Configuration.CRMConfig.PropertySets {
		if set.ID != bootstrapOptions {
			continue
		}
		for _, pair := range set.NVPairs {
			if pair.Name == name {
				return pair.Value, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", ErrPropertyNotFound, name)
}

// walkElements calls fn for every start element of an XML document until
// fn returns false
func walkElements(dump []byte, fn func(xml.StartElement) bool) error {
	dec := xml.NewDecoder(bytes.NewReader(dump))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to parse cluster manager output: %w", err)
		}
		if el, ok := tok.(xml.StartElement); ok && !fn(el) {
			return nil
		}
	}
}

func attr(el xml.StartElement, name string) string {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// objectInCIB reports whether any configuration object carries the id.
// Resource default blocks (rsc-options) are not objects.
func objectInCIB(dump []byte, id string) (bool, error) {
	found := false
	err := walkElements(dump, func(el xml.StartElement) bool {
		if el.Name.Local != "meta_attributes" && attr(el, "id") == id {
			found = true
			return false
		}
		return true
	})
	return found, err
}

// remoteResourcesInCIB lists the ids of ocf:pacemaker:remote primitives
func remoteResourcesInCIB(dump []byte) ([]string, error) {
	var ids []string
	err := walkElements(dump, func(el xml.StartElement) bool {
		if el.Name.Local == "primitive" &&
			attr(el, "class") == "ocf" &&
			attr(el, "provider") == "pacemaker" &&
			attr(el, "type") == "remote" {
			ids = append(ids, attr(el, "id"))
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)
	return ids, nil
}

// memberNodes lists the unames of cluster member nodes from a node status
// dump. Remote nodes are not members.
func memberNodes(dump []byte) ([]string, error) {
	var nodes []string
	err := walkElements(dump, func(el xml.StartElement) bool {
		if el.Name.Local == "node" && attr(el, "type") != "remote" {
			if uname := attr(el, "uname"); uname != "" {
				nodes = append(nodes, uname)
			}
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(nodes)
	return nodes, nil
}
