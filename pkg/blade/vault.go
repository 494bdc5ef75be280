package blade

import (
	"crypto/rand"
	"encoding/hex"
	"regexp"
	"strconv"
	"strings"
)

const placeholderPrefix = "@__raw_block_"

// Vault holds regions that later passes must not touch. A Vault lives for
// exactly one compilation. Its keys carry a random nonce, so template text
// cannot forge one.
type Vault struct {
	entries []string
	prefix  string
	pattern *regexp.Regexp
	tail    *regexp.Regexp
}

func (v *Vault) init() {
	if v.prefix != "" {
		return
	}
	var nonce [8]byte
	// crypto/rand.Read never fails on supported platforms
	_, _ = rand.Read(nonce[:])
	v.prefix = placeholderPrefix + hex.EncodeToString(nonce[:]) + "_"
	v.pattern = regexp.MustCompile(regexp.QuoteMeta(v.prefix) + `(\d+)__@`)
	v.tail = regexp.MustCompile(regexp.QuoteMeta(v.prefix) + `\d+__@$`)
}

// Reserve stores content and returns the key that stands in for it.
func (v *Vault) Reserve(content string) string {
	v.init()
	v.entries = append(v.entries, content)
	return v.prefix + strconv.Itoa(len(v.entries)-1) + "__@"
}

// Len reports the number of reserved entries.
func (v *Vault) Len() int { return len(v.entries) }

// EndsWithKey reports whether text ends with a key issued by this vault.
func (v *Vault) EndsWithKey(text string) bool {
	if v.tail == nil {
		return false
	}
	return v.tail.MatchString(text)
}

// RestoreAll replaces every key issued by this vault with its content and
// empties the vault. Content reserved inside another reserved region is
// restored too.
func (v *Vault) RestoreAll(text string) string {
	if len(v.entries) == 0 {
		return text
	}
	// each round can only uncover keys reserved earlier, so len(entries)
	// rounds always suffice
	for i := 0; i <= len(v.entries) && strings.Contains(text, v.prefix); i++ {
		replaced := false
		text = v.pattern.ReplaceAllStringFunc(text, func(key string) string {
			n, err := strconv.Atoi(key[len(v.prefix) : len(key)-3])
			if err != nil || n >= len(v.entries) {
				return key
			}
			replaced = true
			return v.entries[n]
		})
		if !replaced {
			break
		}
	}
	v.entries = nil
	return text
}
