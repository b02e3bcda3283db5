// Package config loads ilpatch.toml.
//
// A file looks like:
//
//	[normalize]
//	keyword = "ldstr"
//	strict = false
//
//	[rewrite]
//	match_pattern = 'https://[^/"]*example\.com[/a-zA-Z0-9]*'
//	replace_pattern = '^https://[^/]+/'
//	replacement = "https://mirror.local/"
//
//	[patch]
//	resource_ext = [".js"]
//	jobs = 4
//
//	[cache]
//	enabled = true
//
// URL mode can be configured entirely from the environment with
// ILPATCH_TARGET_URL and ILPATCH_REPLACEMENT_URL.
package config
