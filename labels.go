package objmap

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// ClassMap maps detector class ids to the class names the mapping pipeline
// recognises.  Detections with a class id missing from the map are dropped.
type ClassMap map[int]string

// DefaultClassMap returns the class mapping of the retrained person/car model
func DefaultClassMap() ClassMap {
	return ClassMap{0: "person", 1: "car"}
}

// Name returns the class name for the given id and whether it is recognised
func (c ClassMap) Name(id int) (string, bool) {
	name, ok := c[id]
	return name, ok
}

// IDs returns the recognised class ids in ascending order
func (c ClassMap) IDs() []int {
	ids := make([]int, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Names returns the class names ordered by class id
func (c ClassMap) Names() []string {
	names := make([]string, 0, len(c))
	for _, id := range c.IDs() {
		names = append(names, c[id])
	}
	return names
}

// LoadLabels reads the labels used to train the Model from the given text file.
// It should contain one label per line.
func LoadLabels(file string) ([]string, error) {

	// open the file
	f, err := os.Open(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)

	var labels []string

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		labels = append(labels, line)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return labels, nil
}

// LoadClassMap reads a class mapping from a labels file.  Lines of the form
// "id: name" set an explicit class id, any other non empty line is given the
// id of its line number (starting at 0), matching the plain labels file
// format used by YOLO models.
func LoadClassMap(file string) (ClassMap, error) {

	labels, err := LoadLabels(file)

	if err != nil {
		return nil, err
	}

	classes := make(ClassMap)

	for i, line := range labels {
		if line == "" {
			continue
		}

		id := i
		name := line

		if before, after, found := strings.Cut(line, ":"); found {
			n, err := strconv.Atoi(strings.TrimSpace(before))
			if err != nil {
				return nil, fmt.Errorf("invalid class id on line %d: %w", i+1, err)
			}
			id = n
			name = strings.TrimSpace(after)
		}

		if name == "" {
			return nil, fmt.Errorf("empty class name on line %d", i+1)
		}

		if _, dup := classes[id]; dup {
			return nil, fmt.Errorf("duplicate class id %d on line %d", id, i+1)
		}

		classes[id] = name
	}

	if len(classes) == 0 {
		return nil, fmt.Errorf("no class labels found in %s", file)
	}

	return classes, nil
}
