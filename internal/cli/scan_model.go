package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/Flyrell/gatepass/internal/member"
	"github.com/Flyrell/gatepass/internal/scan"
	tea "github.com/charmbracelet/bubbletea"
)

type scanStartedMsg struct {
	gen   uint64
	codes <-chan string
	err   error
}

type scanCodeMsg struct {
	gen     uint64
	payload string
}

type scanResultMsg struct {
	gen uint64
	res member.ScanResult
	err error
}

// scanModel drives a scan.Station. With a manual camera, keys typed while
// scanning form the code; enter submits it.
type scanModel struct {
	ctx     context.Context
	lang    string
	station *scan.Station
	manual  *scan.ChannelCamera

	gen    uint64
	input  string
	result member.ScanResult
	err    error
}

func newScanModel(ctx context.Context, lang string, st *scan.Station, manual *scan.ChannelCamera) scanModel {
	return scanModel{ctx: ctx, lang: lang, station: st, manual: manual}
}

func (m scanModel) Init() tea.Cmd {
	return nil
}

func (m scanModel) start() tea.Cmd {
	st, ctx := m.station, m.ctx
	return func() tea.Msg {
		gen, codes, err := st.Start(ctx)
		return scanStartedMsg{gen: gen, codes: codes, err: err}
	}
}

func (m scanModel) scanAgain() tea.Cmd {
	st, ctx := m.station, m.ctx
	return func() tea.Msg {
		gen, codes, err := st.ScanAgain(ctx)
		return scanStartedMsg{gen: gen, codes: codes, err: err}
	}
}

func waitForCode(gen uint64, codes <-chan string) tea.Cmd {
	return func() tea.Msg {
		payload, ok := <-codes
		if !ok {
			return nil
		}
		return scanCodeMsg{gen: gen, payload: payload}
	}
}

func (m scanModel) resolve(gen uint64, payload string) tea.Cmd {
	st, ctx := m.station, m.ctx
	return func() tea.Msg {
		res, err := st.Decoded(ctx, gen, payload)
		return scanResultMsg{gen: gen, res: res, err: err}
	}
}

func (m scanModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scanStartedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.gen = msg.gen
		m.input = ""
		m.err = nil
		m.result = member.ScanResult{}
		return m, waitForCode(msg.gen, msg.codes)

	case scanCodeMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		return m, m.resolve(msg.gen, msg.payload)

	case scanResultMsg:
		if msg.gen != m.gen || errors.Is(msg.err, scan.ErrStaleScan) {
			return m, nil
		}
		m.result = msg.res
		m.err = msg.err
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m scanModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		_ = m.station.Stop()
		return m, tea.Quit
	}

	switch m.station.Snapshot().State {
	case scan.Scanning:
		return m.handleScanningKey(msg)
	case scan.Resolving:
		if msg.String() == "esc" {
			_ = m.station.Stop()
		}
		return m, nil
	case scan.Resolved:
		switch msg.String() {
		case "enter", " ", "n":
			return m, m.scanAgain()
		case "q", "esc":
			_ = m.station.Stop()
			return m, tea.Quit
		}
	default:
		switch msg.String() {
		case "enter", " ":
			return m, m.start()
		case "q", "esc":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m scanModel) handleScanningKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		_ = m.station.Stop()
		m.input = ""
		return m, nil
	case tea.KeyEnter:
		if m.manual != nil && strings.TrimSpace(m.input) != "" {
			m.manual.Submit(m.input)
			m.input = ""
		}
		return m, nil
	case tea.KeyBackspace:
		if m.manual != nil && len(m.input) > 0 {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil
	case tea.KeyRunes, tea.KeySpace:
		if m.manual != nil {
			m.input += string(msg.Runes)
		} else if msg.String() == "q" {
			_ = m.station.Stop()
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m scanModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(T(m.lang, msgScannerTitle)))
	b.WriteString("\n\n")

	switch m.station.Snapshot().State {
	case scan.Scanning:
		if m.manual != nil {
			b.WriteString(T(m.lang, msgTypeCode) + " " + Primary(m.input) + "█\n")
		} else {
			b.WriteString(Info("●") + " " + T(m.lang, msgTypeCode) + "\n")
		}
		b.WriteString("\n" + footerStyle.Render(T(m.lang, msgStopCamera)) + "\n")
	case scan.Resolving:
		b.WriteString(Silent(T(m.lang, msgChecking)) + "\n")
	case scan.Resolved:
		b.WriteString(scanCard(m.result, m.lang) + "\n")
		b.WriteString("\n" + footerStyle.Render(T(m.lang, msgScanAgain)+"  "+T(m.lang, msgQuitHint)) + "\n")
	default:
		b.WriteString(T(m.lang, msgOpenCamera) + "\n")
		b.WriteString("\n" + footerStyle.Render(T(m.lang, msgQuitHint)) + "\n")
	}

	if m.err != nil {
		b.WriteString("\n" + Error(Localize(m.err, m.lang)) + "\n")
	}
	return b.String()
}
