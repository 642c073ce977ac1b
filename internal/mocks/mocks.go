// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/sitecheck/internal/harness"
)

// -- Driver Mocks --

// MockDriver mocks harness.Driver.
type MockDriver struct {
	mock.Mock
}

func (m *MockDriver) Start(ctx context.Context) (harness.Session, error) {
	args := m.Called(ctx)
	if s, ok := args.Get(0).(harness.Session); ok {
		return s, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockSession mocks harness.Session.
type MockSession struct {
	mock.Mock
}

func (m *MockSession) Launch(ctx context.Context, opts harness.LaunchOptions) (harness.Browser, error) {
	args := m.Called(ctx, opts)
	if b, ok := args.Get(0).(harness.Browser); ok {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSession) Stop(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockBrowser mocks harness.Browser.
type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) NewContext(ctx context.Context, opts harness.ContextOptions) (harness.BrowsingContext, error) {
	args := m.Called(ctx, opts)
	if c, ok := args.Get(0).(harness.BrowsingContext); ok {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBrowser) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// MockBrowsingContext mocks harness.BrowsingContext.
type MockBrowsingContext struct {
	mock.Mock
}

func (m *MockBrowsingContext) NewPage(ctx context.Context) (harness.Page, error) {
	args := m.Called(ctx)
	if p, ok := args.Get(0).(harness.Page); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBrowsingContext) Close(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// -- Page Mocks --

// MockPage mocks harness.Page.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Goto(ctx context.Context, url string, opts harness.GotoOptions) error {
	return m.Called(ctx, url, opts).Error(0)
}

func (m *MockPage) WaitForLoadState(ctx context.Context, state harness.LoadState, timeout time.Duration) error {
	return m.Called(ctx, state, timeout).Error(0)
}

func (m *MockPage) Frames(ctx context.Context) ([]harness.Frame, error) {
	args := m.Called(ctx)
	frames, _ := args.Get(0).([]harness.Frame)
	return frames, args.Error(1)
}

func (m *MockPage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	return m.Called(ctx, selector, timeout).Error(0)
}

func (m *MockPage) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	return m.Called(ctx, selector, value, timeout).Error(0)
}

func (m *MockPage) Wheel(ctx context.Context, deltaX, deltaY float64) error {
	return m.Called(ctx, deltaX, deltaY).Error(0)
}

func (m *MockPage) SetViewport(ctx context.Context, width, height int) error {
	return m.Called(ctx, width, height).Error(0)
}

func (m *MockPage) Evaluate(ctx context.Context, expression string) (any, error) {
	args := m.Called(ctx, expression)
	return args.Get(0), args.Error(1)
}

func (m *MockPage) Count(ctx context.Context, selector string) (int, error) {
	args := m.Called(ctx, selector)
	return args.Int(0), args.Error(1)
}

func (m *MockPage) Visible(ctx context.Context, selector string) (bool, error) {
	args := m.Called(ctx, selector)
	return args.Bool(0), args.Error(1)
}

func (m *MockPage) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	args := m.Called(ctx, selector, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockPage) Text(ctx context.Context, selector string) (string, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Error(1)
}

func (m *MockPage) URL(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPage) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	b, _ := args.Get(0).([]byte)
	return b, args.Error(1)
}

func (m *MockPage) Content(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockFrame mocks harness.Frame.
type MockFrame struct {
	mock.Mock
}

func (m *MockFrame) Name() string {
	return m.Called().String(0)
}

func (m *MockFrame) WaitForLoadState(ctx context.Context, state harness.LoadState, timeout time.Duration) error {
	return m.Called(ctx, state, timeout).Error(0)
}

// -- Stack Helper --

// Stack wires a full driver chain whose acquisition calls all succeed and
// whose release calls are each expected exactly once.
type Stack struct {
	Driver  *MockDriver
	Session *MockSession
	Browser *MockBrowser
	Context *MockBrowsingContext
	Page    *MockPage
}

// NewStack builds a Stack. Page expectations are left to the caller except
// for the initial navigation, readiness wait and frame listing, which succeed.
func NewStack() *Stack {
	s := &Stack{
		Driver:  new(MockDriver),
		Session: new(MockSession),
		Browser: new(MockBrowser),
		Context: new(MockBrowsingContext),
		Page:    new(MockPage),
	}
	s.Driver.On("Start", mock.Anything).Return(s.Session, nil)
	s.Session.On("Launch", mock.Anything, mock.Anything).Return(s.Browser, nil)
	s.Session.On("Stop", mock.Anything).Return(nil).Once()
	s.Browser.On("NewContext", mock.Anything, mock.Anything).Return(s.Context, nil)
	s.Browser.On("Close", mock.Anything).Return(nil).Once()
	s.Context.On("NewPage", mock.Anything).Return(s.Page, nil)
	s.Context.On("Close", mock.Anything).Return(nil).Once()
	return s
}

// ExpectLoad stubs a successful commit navigation followed by a ready page with no frames.
func (s *Stack) ExpectLoad() *Stack {
	s.Page.On("Goto", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	s.Page.On("WaitForLoadState", mock.Anything, harness.LoadStateDOMContentLoaded, mock.Anything).Return(nil)
	s.Page.On("Frames", mock.Anything).Return([]harness.Frame{}, nil)
	return s
}

// AssertReleased asserts every resource was released exactly once.
func (s *Stack) AssertReleased(t mock.TestingT) {
	s.Context.AssertNumberOfCalls(t, "Close", 1)
	s.Browser.AssertNumberOfCalls(t, "Close", 1)
	s.Session.AssertNumberOfCalls(t, "Stop", 1)
}
