package core

// FoundURLs keeps discovered references in the order they were found,
// without exact repeats.
type FoundURLs struct {
	items []*FoundURL
	seen  map[string]int
}

func NewFoundURLs() *FoundURLs {
	return &FoundURLs{seen: make(map[string]int)}
}

// Add keeps the first occurrence of a URL. When a plain link and an asset
// reference share a URL, the entry takes the asset's source so the target
// is fetched as an asset.
func (f *FoundURLs) Add(u *FoundURL) {
	if u == nil {
		return
	}
	if i, ok := f.seen[u.URL]; ok {
		if existing := f.items[i]; !existing.IsIncludedAsset() && u.IsIncludedAsset() {
			existing.Source = u.Source
		}
		return
	}
	f.seen[u.URL] = len(f.items)
	f.items = append(f.items, u)
}

// AddURLsFromTextArray normalizes every match, skipping the ones that are
// not requestable.
func (f *FoundURLs) AddURLsFromTextArray(matches []string, sourceURL string, source URLSource) {
	for _, raw := range matches {
		found, err := NewFoundURL(raw, sourceURL, source)
		if err != nil {
			Logger.Debugf("skip %s match %q from %s: %v", source, raw, sourceURL, err)
			continue
		}
		f.Add(found)
	}
}

func (f *FoundURLs) URLs() []*FoundURL {
	return f.items
}

func (f *FoundURLs) Len() int {
	return len(f.items)
}
