package profile

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// configFile is the parsed form of an ssh client config. Blocks this tool
// manages are held as Profiles and rendered canonically on save; everything
// else (wildcard hosts, multi-pattern hosts, blocks with directives we don't
// model) is carried verbatim so a rewrite never damages hand-maintained
// configuration.
type configFile struct {
	preamble []string // verbatim lines before the first Host keyword
	blocks   []configBlock
}

type configBlock struct {
	managed bool
	profile Profile  // valid when managed
	lines   []string // verbatim block lines when !managed, Host line included
}

// managedKeywords are the directives a canonical block may contain. A block
// holding anything else (ProxyJump, LocalForward, ...) is left unmanaged.
var managedKeywords = map[string]bool{
	"hostname":               true,
	"port":                   true,
	"user":                   true,
	"identityfile":           true,
	"identitiesonly":         true,
	"passwordauthentication": true,
}

// parseConfig reads ssh config syntax: "Keyword arguments" lines, keywords
// case-insensitive, '=' permitted as separator, '#' comments, host blocks
// opened by the Host keyword.
func parseConfig(r io.Reader) (*configFile, error) {
	cfg := &configFile{}

	type rawBlock struct {
		patterns []string
		lines    []string
		keywords map[string]string
		clean    bool // only managed keywords seen
	}
	var blocks []*rawBlock
	var current *rawBlock

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		keyword, value := splitKeyword(line)

		if keyword == "host" {
			current = &rawBlock{
				patterns: strings.Fields(value),
				lines:    []string{line},
				keywords: make(map[string]string),
				clean:    true,
			}
			blocks = append(blocks, current)
			continue
		}

		if current == nil {
			cfg.preamble = append(cfg.preamble, line)
			continue
		}

		current.lines = append(current.lines, line)
		if keyword == "" {
			continue // blank or comment, irrelevant for managed decision
		}
		if !managedKeywords[keyword] {
			current.clean = false
			continue
		}
		if _, dup := current.keywords[keyword]; !dup {
			current.keywords[keyword] = value
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading ssh config: %w", err)
	}

	for len(cfg.preamble) > 0 && strings.TrimSpace(cfg.preamble[len(cfg.preamble)-1]) == "" {
		cfg.preamble = cfg.preamble[:len(cfg.preamble)-1]
	}

	for _, rb := range blocks {
		// Trailing blank lines belong to block separation, not content;
		// dropping them keeps repeated save cycles from accumulating blanks.
		for len(rb.lines) > 0 && strings.TrimSpace(rb.lines[len(rb.lines)-1]) == "" {
			rb.lines = rb.lines[:len(rb.lines)-1]
		}

		block := configBlock{lines: rb.lines}
		if rb.clean && len(rb.patterns) == 1 && !strings.ContainsAny(rb.patterns[0], "*?!") {
			block.managed = true
			block.profile = profileFromKeywords(rb.patterns[0], rb.keywords)
		}
		cfg.blocks = append(cfg.blocks, block)
	}

	return cfg, nil
}

// splitKeyword separates an ssh config line into lower-cased keyword and
// raw value. Returns "" keyword for blanks and comments.
func splitKeyword(line string) (string, string) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", ""
	}

	sep := strings.IndexAny(trimmed, " \t=")
	if sep < 0 {
		return strings.ToLower(trimmed), ""
	}

	keyword := strings.ToLower(trimmed[:sep])
	value := strings.TrimLeft(trimmed[sep:], " \t=")
	value = strings.Trim(value, `"`)
	return keyword, value
}

func profileFromKeywords(name string, kw map[string]string) Profile {
	p := Profile{
		Name:    name,
		Address: kw["hostname"],
		User:    kw["user"],
	}
	if p.Address == "" {
		p.Address = name // ssh semantics: HostName defaults to the alias
	}
	if port, err := strconv.Atoi(kw["port"]); err == nil {
		p.Port = port
	}

	if strings.EqualFold(kw["passwordauthentication"], "yes") {
		p.AuthMethod = AuthPassword
	} else {
		p.AuthMethod = AuthKey
		p.IdentityFile = kw["identityfile"]
	}
	return p
}

// render writes the config back out. Managed blocks are rendered
// canonically, unmanaged blocks byte-for-byte. A trailing keep-alive
// "Host *" block is appended unless any wildcard host block already exists.
func (cfg *configFile) render(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for _, line := range cfg.preamble {
		fmt.Fprintln(bw, line)
	}

	hasWildcard := false
	for i, block := range cfg.blocks {
		if i > 0 || len(cfg.preamble) > 0 {
			fmt.Fprintln(bw)
		}
		if !block.managed {
			for _, line := range block.lines {
				fmt.Fprintln(bw, line)
			}
			if blockHasWildcard(block.lines) {
				hasWildcard = true
			}
			continue
		}
		renderProfile(bw, block.profile)
	}

	if !hasWildcard {
		if len(cfg.blocks) > 0 || len(cfg.preamble) > 0 {
			fmt.Fprintln(bw)
		}
		fmt.Fprintln(bw, "Host *")
		fmt.Fprintln(bw, "    ServerAliveInterval 60")
		fmt.Fprintln(bw, "    ServerAliveCountMax 3")
	}

	return bw.Flush()
}

func renderProfile(w io.Writer, p Profile) {
	fmt.Fprintf(w, "Host %s\n", p.Name)
	fmt.Fprintf(w, "    HostName %s\n", p.Address)
	fmt.Fprintf(w, "    Port %d\n", p.EffectivePort())
	fmt.Fprintf(w, "    User %s\n", p.User)
	switch p.AuthMethod {
	case AuthPassword:
		fmt.Fprintf(w, "    PasswordAuthentication yes\n")
	default:
		if p.IdentityFile != "" {
			fmt.Fprintf(w, "    IdentityFile %s\n", p.IdentityFile)
			fmt.Fprintf(w, "    IdentitiesOnly yes\n")
		}
	}
}

func blockHasWildcard(lines []string) bool {
	for _, line := range lines {
		keyword, value := splitKeyword(line)
		if keyword != "host" {
			continue
		}
		for _, pattern := range strings.Fields(value) {
			if strings.ContainsAny(pattern, "*?") {
				return true
			}
		}
	}
	return false
}

// profiles returns the managed profiles in file order.
func (cfg *configFile) profiles() []Profile {
	var out []Profile
	for _, block := range cfg.blocks {
		if block.managed {
			out = append(out, block.profile)
		}
	}
	return out
}

// find returns the index of the managed block for name, or -1.
func (cfg *configFile) find(name string) int {
	for i, block := range cfg.blocks {
		if block.managed && block.profile.Name == name {
			return i
		}
	}
	return -1
}

// upsert replaces the managed block for p.Name in place, or appends one.
func (cfg *configFile) upsert(p Profile) {
	if i := cfg.find(p.Name); i >= 0 {
		cfg.blocks[i].profile = p
		return
	}
	cfg.blocks = append(cfg.blocks, configBlock{managed: true, profile: p})
}

// remove deletes the managed block for name. Reports whether it existed.
func (cfg *configFile) remove(name string) bool {
	i := cfg.find(name)
	if i < 0 {
		return false
	}
	cfg.blocks = append(cfg.blocks[:i], cfg.blocks[i+1:]...)
	return true
}
