package objfile

import "github.com/coreforge/gitcore/plumbing"

type objfileFixture struct {
	hash    string
	content string
	data    string
	t       plumbing.ObjectType
}

// objfileFixtures holds loose object file samples: the expected hash
// and decoded content, plus the base64-encoded zlib-compressed object
// file bytes that decode to that content.
var objfileFixtures = []objfileFixture{
	{
		hash:    "3b18e512dba79e4c8300dd08aeb37f8e728b8dad",
		content: "aGVsbG8gd29ybGQK",
		data:    "eJxLyslPUjA0YshIzcnJVyjPL8pJ4QIARBEGiQ==",
		t:       plumbing.BlobObject,
	},
	{
		hash:    "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391",
		content: "",
		data:    "eJxLyslPUjBgAAAJsAHw",
		t:       plumbing.BlobObject,
	},
	{
		hash:    "2df5adfd5a2b77ca01fe995e41394852058931de",
		content: "dHJlZSBhYmMxMjMKYXV0aG9yIGEgPGFAYS5jb20+IDAgKzAwMDAKY29tbWl0dGVyIGEgPGFAYS5jb20+IDAgKzAwMDAKCm1zZwo=",
		data:    "eJxLzs/NzSxRMDdhKClKTVVITEo2NDLmSiwtycgvUkhUsEl0SNRLzs+1UzBQ0DYAAq5ksIaSVOyyXLnF6VwAQ3cYSw==",
		t:       plumbing.CommitObject,
	},
}
