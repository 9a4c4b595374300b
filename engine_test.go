package typefinder

import (
	"context"
	"errors"
	"go/types"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, f *fixture, host HostRegistry, mutate ...func(*Options)) *Engine {
	t.Helper()
	opts := DefaultOptions()
	for _, m := range mutate {
		m(&opts)
	}
	e, err := New(host, f, opts)
	require.NoError(t, err)
	return e
}

func TestFindClassesOf_IService(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath, genericPath))

	found, err := FindClassesOf[IService](context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, []string{
		implPath + ".MailService",
		implPath + ".QueueService",
		implPath + ".AuditService",
	}, names(found))

	again, err := FindClassesOf[IService](context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, names(found), names(again))
}

func TestFindClassesOf_MyFirstClass(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath))

	found, err := FindClassesOf[MyFirstClass](context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, []string{
		servicesPath + ".MyFirstClass",
		implPath + ".MySecondClass",
	}, names(found))
}

func TestFindClassesOfType_MatchesGenericForm(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath))
	ctx := context.Background()

	target, err := e.ResolveType(ctx, servicesPath+".IService")
	require.NoError(t, err)

	direct, err := e.FindClassesOfType(ctx, target)
	require.NoError(t, err)
	generic, err := FindClassesOf[IService](ctx, e)
	require.NoError(t, err)

	assert.Len(t, direct, 3)
	assert.Equal(t, names(generic), names(direct))
}

func TestFindClassesOfType_IncludeAbstract(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath))
	ctx := context.Background()
	target := lookupType(t, f, servicesPath, "IService")

	found, err := e.FindClassesOfType(ctx, target, IncludeAbstract())
	require.NoError(t, err)
	assert.Equal(t, []string{
		implPath + ".MailService",
		implPath + ".QueueService",
		implPath + ".AuditService",
		implPath + ".baseService",
		implPath + ".ServeFunc",
	}, names(found))

	for _, d := range found {
		assert.False(t, d.IsInterface(), "%s is an interface", d.Name)
	}

	base, err := e.FindClassesOfType(ctx, lookupType(t, f, servicesPath, "MyFirstClass"), IncludeAbstract())
	require.NoError(t, err)
	assert.Contains(t, names(base), implPath+".AbstractFirst")
}

func TestFindClassesOfType_NeverReportsInterfaces(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath))

	found, err := e.FindClassesOfType(context.Background(), lookupType(t, f, servicesPath, "IService"), IncludeAbstract())
	require.NoError(t, err)
	assert.NotContains(t, names(found), servicesPath+".IService")
	assert.NotContains(t, names(found), implPath+".ExtendedService")
}

func TestFindClassesOfType_IgnoredTypes(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(implPath))

	found, err := e.FindClassesOfType(context.Background(), lookupType(t, f, servicesPath, "IService"), IncludeAbstract())
	require.NoError(t, err)
	assert.NotContains(t, names(found), implPath+".HiddenService")
}

func TestFindClassesOfType_OpenGeneric(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, genericPath))

	found, err := e.FindClassesOfType(context.Background(), lookupType(t, f, servicesPath, "Repository"))
	require.NoError(t, err)
	assert.Equal(t, []string{genericPath + ".MemoryRepo"}, names(found))
}

func TestFindClassesOfType_DeclaringType(t *testing.T) {
	f := standardFixture(t)
	target := lookupType(t, f, servicesPath, "IService")

	// default: a method-local match is reported as its receiver type, a
	// function-local one as itself
	e := newTestEngine(t, f, hostOf(localPath))
	found, err := e.FindClassesOfType(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, []string{
		localPath + ".Factory",
		localPath + ".helper.plain",
	}, names(found))

	e = newTestEngine(t, f, hostOf(localPath), func(o *Options) { o.ReportDeclaringType = false })
	found, err = e.FindClassesOfType(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, []string{
		localPath + ".Factory.impl",
		localPath + ".helper.plain",
	}, names(found))
}

func TestFindClassesOfType_TargetMustBeNamed(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(implPath))

	_, err := e.FindClassesOfType(context.Background(), types.Typ[types.Int])
	require.Error(t, err)
	_, err = e.FindClassesOfType(context.Background(), nil)
	require.Error(t, err)
}

func TestModules_SkipPatternTakesPrecedence(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath), func(o *Options) {
		o.SkipPattern = `^EXAMPLE\.COM/APP/IMPL$`
		o.RestrictPattern = `^example\.com/`
	})
	ctx := context.Background()

	modules, err := e.Modules(ctx)
	require.NoError(t, err)
	assert.Empty(t, modules)
	assert.Zero(t, f.loads[implPath])

	found, err := e.FindClassesOfType(ctx, lookupType(t, f, servicesPath, "IService"))
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Zero(t, f.loads[implPath])
}

func TestModules_Dedup(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath, implPath), func(o *Options) {
		o.ModuleNames = []string{implPath, genericPath}
	})
	ctx := context.Background()

	first, err := e.Modules(ctx)
	require.NoError(t, err)
	second, err := e.Modules(ctx)
	require.NoError(t, err)

	paths := func(ms []*Module) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.Path
		}
		return out
	}
	assert.Equal(t, []string{servicesPath, implPath, genericPath}, paths(first))
	assert.Equal(t, paths(first), paths(second))
}

func TestModules_WithoutHost(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, nil, func(o *Options) {
		o.LoadFromHost = false
		o.ModuleNames = []string{implPath}
	})

	modules, err := e.Modules(context.Background())
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Equal(t, implPath, modules[0].Path)

	_, err = New(nil, f, DefaultOptions())
	require.Error(t, err)
}

func TestModules_ConfiguredLoadFailure(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath))
	e.AddModuleNames("example.com/missing")
	ctx := context.Background()

	_, err := e.Modules(ctx)
	var loadErr *ModuleLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "example.com/missing", loadErr.Name)
	assert.Contains(t, err.Error(), "example.com/missing")

	found, err := e.FindClassesOfType(ctx, lookupType(t, f, servicesPath, "IService"))
	require.ErrorAs(t, err, &loadErr)
	assert.Nil(t, found)
}

func TestModules_HostFailure(t *testing.T) {
	f := standardFixture(t)
	boom := errors.New("boom")
	e := newTestEngine(t, f, staticHost{err: boom})

	_, err := e.Modules(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestFindClassesOfType_EnumerationFailure(t *testing.T) {
	f := standardFixture(t)
	broken := NewModule(f.pkgs[implPath], nil, f.fset, nil, errors.New("undefined: Foo"), errors.New("undefined: Bar"))
	broken.Path = "example.com/app/broken"
	f.modules[broken.Path] = broken
	e := newTestEngine(t, f, hostOf(implPath, "example.com/app/broken"))

	found, err := e.FindClassesOfType(context.Background(), lookupType(t, f, servicesPath, "IService"))
	require.Error(t, err)
	assert.Nil(t, found)

	var enumErr *TypeEnumerationError
	require.ErrorAs(t, err, &enumErr)
	assert.Equal(t, "undefined: Foo\nundefined: Bar", err.Error())
}

func TestFindClassesOfType_Cache(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath), func(o *Options) { o.CacheSize = 4 })
	ctx := context.Background()
	target := lookupType(t, f, servicesPath, "IService")

	first, err := e.FindClassesOfType(ctx, target)
	require.NoError(t, err)
	loads := f.totalLoads()

	second, err := e.FindClassesOfType(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, names(first), names(second))
	assert.Equal(t, loads, f.totalLoads(), "cached call should not load modules")

	e.SetModuleNames(genericPath)
	_, err = e.FindClassesOfType(ctx, target)
	require.NoError(t, err)
	assert.Greater(t, f.totalLoads(), loads)
	assert.Equal(t, []string{genericPath}, e.ModuleNames())
}

func TestFindClassesOfType_Canceled(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf(servicesPath, implPath))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.FindClassesOfType(ctx, lookupType(t, f, servicesPath, "IService"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestResolveType(t *testing.T) {
	f := standardFixture(t)
	e := newTestEngine(t, f, hostOf())
	ctx := context.Background()

	typ, err := e.ResolveType(ctx, implPath+".MailService")
	require.NoError(t, err)
	assert.Equal(t, implPath+".MailService", types.TypeString(typ, nil))

	_, err = e.ResolveType(ctx, implPath+".Nope")
	require.Error(t, err)

	_, err = e.ResolveType(ctx, "example.com/missing.Type")
	var loadErr *ModuleLoadError
	require.ErrorAs(t, err, &loadErr)

	_, err = e.ResolveType(ctx, "example.com/app")
	require.Error(t, err)
}
