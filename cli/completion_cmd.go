package main

import (
	"fmt"
	"os"
)

func runCompletion(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: chatgen completion <bash|zsh|fish>")
		return 2
	}

	switch args[0] {
	case "bash":
		fmt.Print(bashCompletion)
	case "zsh":
		fmt.Print(zshCompletion)
	case "fish":
		fmt.Print(fishCompletion)
	default:
		fmt.Fprintf(os.Stderr, "unsupported shell: %s\n", args[0])
		fmt.Fprintln(os.Stderr, "Supported shells: bash, zsh, fish")
		return 2
	}
	return 0
}

const bashCompletion = `# chatgen bash completion
_chatgen() {
    local cur prev
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"
    prev="${COMP_WORDS[COMP_CWORD-1]}"

    case "${prev}" in
        chatgen)
            COMPREPLY=( $(compgen -W "ask chat batch key serve completion version" -- "${cur}") )
            return 0
            ;;
        key)
            COMPREPLY=( $(compgen -W "set clear status test" -- "${cur}") )
            return 0
            ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "${cur}") )
            return 0
            ;;
        --config-dir)
            COMPREPLY=( $(compgen -d -- "${cur}") )
            return 0
            ;;
    esac

    if [[ "${cur}" == -* ]]; then
        COMPREPLY=( $(compgen -W "--config-dir --verbose --version --model --base-url --timeout --json --concurrency --grpc --log-file" -- "${cur}") )
        return 0
    fi

    COMPREPLY=( $(compgen -f -- "${cur}") )
}
complete -F _chatgen chatgen
`

const zshCompletion = `#compdef chatgen
# chatgen zsh completion

_chatgen() {
    local -a commands
    commands=(
        'ask:Print a single reply'
        'chat:Start an interactive chat'
        'batch:Answer JSON-lines conversations concurrently'
        'key:Manage the stored API key'
        'serve:Start MCP server on stdio or gRPC'
        'completion:Generate shell completions'
        'version:Print version and exit'
    )

    _arguments -C \
        '--config-dir[Directory containing .chatgen.yaml]:directory:_files -/' \
        '(-v --verbose)'{-v,--verbose}'[Debug logging]' \
        '--version[Print version]' \
        '1:command:->cmds' \
        '*::arg:->args'

    case "$state" in
        cmds)
            _describe 'command' commands
            ;;
        args)
            case "${words[1]}" in
                batch)
                    _files
                    ;;
                key)
                    _values 'action' set clear status test
                    ;;
                completion)
                    _values 'shell' bash zsh fish
                    ;;
            esac
            ;;
    esac
}

_chatgen "$@"
`

const fishCompletion = `# chatgen fish completion
complete -c chatgen -n '__fish_use_subcommand' -a 'ask' -d 'Print a single reply'
complete -c chatgen -n '__fish_use_subcommand' -a 'chat' -d 'Start an interactive chat'
complete -c chatgen -n '__fish_use_subcommand' -a 'batch' -d 'Answer JSON-lines conversations concurrently'
complete -c chatgen -n '__fish_use_subcommand' -a 'key' -d 'Manage the stored API key'
complete -c chatgen -n '__fish_use_subcommand' -a 'serve' -d 'Start MCP server on stdio or gRPC'
complete -c chatgen -n '__fish_use_subcommand' -a 'completion' -d 'Generate shell completions'
complete -c chatgen -n '__fish_use_subcommand' -a 'version' -d 'Print version and exit'
complete -c chatgen -l config-dir -d 'Directory containing .chatgen.yaml' -rF
complete -c chatgen -s v -l verbose -d 'Debug logging'
complete -c chatgen -l version -d 'Print version'
complete -c chatgen -n '__fish_seen_subcommand_from key' -a 'set clear status test'
complete -c chatgen -n '__fish_seen_subcommand_from completion' -a 'bash zsh fish'
`
